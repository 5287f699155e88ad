package locale

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// FallbackLanguage is used when no languages are configured or discovered.
const FallbackLanguage = "en"

// Set is the ordered, duplicate-free list of supported language codes plus
// the default. A Set is never empty and is safe for concurrent use.
type Set struct {
	codes []string
	index map[string]struct{}
	def   string

	// matcher covers the codes that parse as BCP 47 tags; tagCodes maps
	// matcher indices back to codes.
	matcher  language.Matcher
	tagCodes []string
	invalid  []string
}

// NewSet builds a Set from codes. Empty and duplicate codes are dropped. If
// nothing remains the set is [FallbackLanguage]. A default that is not in
// the set is replaced by the first code.
func NewSet(codes []string, def string) *Set {
	s := &Set{index: make(map[string]struct{}, len(codes))}
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, dup := s.index[code]; dup {
			continue
		}
		s.index[code] = struct{}{}
		s.codes = append(s.codes, code)
	}
	if len(s.codes) == 0 {
		s.codes = []string{FallbackLanguage}
		s.index[FallbackLanguage] = struct{}{}
	}

	s.def = def
	if _, ok := s.index[def]; !ok {
		s.def = s.codes[0]
	}

	// Default first: the matcher falls back to its first tag.
	order := append([]string{s.def}, s.codes...)
	var tags []language.Tag
	for i, code := range order {
		if i > 0 && code == s.def {
			continue
		}
		tag, err := language.Parse(code)
		if err != nil {
			if i > 0 {
				s.invalid = append(s.invalid, code)
			}
			continue
		}
		tags = append(tags, tag)
		s.tagCodes = append(s.tagCodes, code)
	}
	if _, err := language.Parse(s.def); err != nil {
		s.invalid = append([]string{s.def}, s.invalid...)
	}
	if len(tags) == 0 {
		tags = []language.Tag{language.Und}
		s.tagCodes = []string{s.def}
	}
	s.matcher = language.NewMatcher(tags)
	return s
}

// Discover builds a Set from the sub-directory names of the pages root,
// in lexical order. Files are ignored. A missing directory yields the
// fallback set.
func Discover(pages fs.FS, def string, logger *slog.Logger) (*Set, error) {
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := fs.ReadDir(pages, ".")
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("locale: scan pages: %w", err)
	}

	var codes []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		codes = append(codes, e.Name())
	}
	sort.Strings(codes)

	set := NewSet(codes, def)
	if len(codes) == 0 {
		logger.Warn("no language directories found, using fallback",
			"language", FallbackLanguage)
	}
	if def != "" && def != set.Default() {
		logger.Warn("default language not available, using first language",
			"configured", def,
			"default", set.Default())
	}
	for _, code := range set.invalid {
		logger.Warn("language directory is not a valid BCP 47 tag", "language", code)
	}
	return set, nil
}

// Codes returns a copy of the language codes in order.
func (s *Set) Codes() []string {
	out := make([]string, len(s.codes))
	copy(out, s.codes)
	return out
}

// Default returns the default language.
func (s *Set) Default() string {
	return s.def
}

// Contains reports whether code is a supported language. Matching is exact
// and case-sensitive, like the directory names it comes from.
func (s *Set) Contains(code string) bool {
	_, ok := s.index[code]
	return ok
}

// Invalid returns the codes that are not valid BCP 47 tags. They still
// route, but never win Accept-Language negotiation.
func (s *Set) Invalid() []string {
	return append([]string(nil), s.invalid...)
}

// Match picks the supported language that best fits an Accept-Language
// header. It returns the default when nothing matches.
func (s *Set) Match(acceptLanguage string) string {
	if acceptLanguage == "" {
		return s.def
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return s.def
	}
	_, idx, conf := s.matcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(s.tagCodes) {
		return s.def
	}
	return s.tagCodes[idx]
}

// String implements fmt.Stringer.
func (s *Set) String() string {
	return fmt.Sprintf("%s (default %s)", strings.Join(s.codes, ","), s.def)
}
