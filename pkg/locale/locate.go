package locale

import (
	"net/http"
	"strings"
)

// IndexName is the template name used for an empty subpath and for
// directory indexes.
const IndexName = "index"

// NotFoundName is the per-language not-found template.
const NotFoundName = "404"

// Location is the result of splitting a request path into a language and a
// language-relative subpath.
type Location struct {
	// Lang is the resolved language, always a member of the Set.
	Lang string

	// Subpath is the path after the language segment, without leading or
	// trailing slashes. Empty for the language root.
	Subpath string

	// Segments is Subpath split on "/". Nil when Subpath is empty.
	Segments []string

	// Explicit is true when the language came from the first path segment
	// rather than the default.
	Explicit bool
}

// Locate splits path into language and subpath. When the first segment is a
// supported language it is consumed; otherwise the default language is used
// and the whole trimmed path becomes the subpath.
func (s *Set) Locate(path string) Location {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	trimmed := strings.Trim(path, "/")

	loc := Location{Lang: s.def}
	if trimmed == "" {
		return loc
	}

	segments := strings.Split(trimmed, "/")
	if s.Contains(segments[0]) {
		loc.Lang = segments[0]
		loc.Explicit = true
		segments = segments[1:]
	}
	if len(segments) > 0 {
		loc.Subpath = strings.Join(segments, "/")
		loc.Segments = segments
	}
	return loc
}

// Single splits path for a site without language directories. The returned
// Location has an empty Lang, so its templates are unqualified.
func Single(path string) Location {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	var loc Location
	if trimmed := strings.Trim(path, "/"); trimmed != "" {
		loc.Subpath = trimmed
		loc.Segments = strings.Split(trimmed, "/")
	}
	return loc
}

// Name returns the language-relative template name for the exact lookup.
func (l Location) Name() string {
	if l.Subpath == "" {
		return IndexName
	}
	return l.Subpath
}

// Template qualifies name with the location's language. Unqualified
// locations from Single return name unchanged.
func (l Location) Template(name string) string {
	if l.Lang == "" {
		return name
	}
	return l.Lang + "/" + name
}

// CandidateKind tags a step of the resolution chain.
type CandidateKind int

const (
	// Dynamic renders <lang>/<name> with the second segment as ID.
	Dynamic CandidateKind = iota
	// Exact renders <lang>/<subpath>.
	Exact
	// Index renders the directory index <lang>/<subpath>/index.
	Index
	// NotFound renders <lang>/404 with status 404.
	NotFound
)

// String implements fmt.Stringer.
func (k CandidateKind) String() string {
	switch k {
	case Dynamic:
		return "dynamic"
	case Exact:
		return "exact"
	case Index:
		return "index"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Candidate is one template to try, in priority order.
type Candidate struct {
	Kind CandidateKind

	// Template is the language-qualified template id.
	Template string

	// ID is the dynamic identifier for Dynamic candidates.
	ID string

	// Status is the HTTP status to answer with when the candidate renders.
	Status int
}

// Candidates returns the ordered template candidates for the location:
// dynamic, exact, index and finally the language's 404 page. Every template
// id is prefixed with the resolved language.
func (l Location) Candidates() []Candidate {
	out := make([]Candidate, 0, 4)

	if len(l.Segments) == 2 && l.Segments[0] != "" && l.Segments[1] != "" {
		out = append(out, Candidate{
			Kind:     Dynamic,
			Template: l.Template(l.Segments[0]),
			ID:       l.Segments[1],
			Status:   http.StatusOK,
		})
	}

	exact := l.Template(l.Name())
	out = append(out, Candidate{Kind: Exact, Template: exact, Status: http.StatusOK})

	if l.Subpath != "" {
		out = append(out, Candidate{
			Kind:     Index,
			Template: l.Template(l.Subpath + "/" + IndexName),
			Status:   http.StatusOK,
		})
	}

	out = append(out, Candidate{
		Kind:     NotFound,
		Template: l.Template(NotFoundName),
		Status:   http.StatusNotFound,
	})
	return out
}
