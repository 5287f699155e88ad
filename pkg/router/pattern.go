package router

import (
	"fmt"
	"regexp"
	"strings"
)

// pattern is a compiled parameterized route such as "/item/{id}".
type pattern struct {
	// raw is the pattern as registered
	raw string

	// names are the placeholder names in order of appearance
	names []string

	// re matches the full request path; group i+1 captures names[i]
	re *regexp.Regexp
}

// isPattern reports whether path must go through compilePattern. A stray
// '}' counts so that it is rejected instead of being registered verbatim.
func isPattern(path string) bool {
	return strings.ContainsAny(path, "{}")
}

// compilePattern turns a route with {name} placeholders into an anchored
// matcher. Each placeholder matches exactly one non-empty path segment.
func compilePattern(raw string) (*pattern, error) {
	var (
		b     strings.Builder
		names []string
		seen  = map[string]struct{}{}
	)
	b.WriteString("^")

	rest := raw
	for len(rest) > 0 {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			if strings.IndexByte(rest, '}') >= 0 {
				return nil, fmt.Errorf("route %q: unbalanced '}'", raw)
			}
			b.WriteString(regexp.QuoteMeta(rest))
			break
		}
		if strings.IndexByte(rest[:open], '}') >= 0 {
			return nil, fmt.Errorf("route %q: unbalanced '}'", raw)
		}
		b.WriteString(regexp.QuoteMeta(rest[:open]))

		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return nil, fmt.Errorf("route %q: unterminated placeholder", raw)
		}
		name := rest[open+1 : open+end]
		if !validParamName(name) {
			return nil, fmt.Errorf("route %q: invalid placeholder name %q", raw, name)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("route %q: duplicate placeholder %q", raw, name)
		}
		seen[name] = struct{}{}
		names = append(names, name)
		b.WriteString("([^/]+)")

		rest = rest[open+end+1:]
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("route %q: %w", raw, err)
	}
	return &pattern{raw: raw, names: names, re: re}, nil
}

// match returns the extracted parameters if path matches the pattern.
func (p *pattern) match(path string) (map[string]string, bool) {
	m := p.re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	params := make(map[string]string, len(p.names))
	for i, name := range p.names {
		params[name] = m[i+1]
	}
	return params, true
}

func validParamName(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
