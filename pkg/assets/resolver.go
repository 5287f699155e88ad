package assets

import (
	"html/template"
	"strings"
)

// Marker comments emitted when production tags cannot be built. Rendering
// never fails because of the manifest.
const (
	MarkerManifestMissing = "<!-- Vite manifest not found -->"
	MarkerEntryMissing    = "<!-- Vite entrypoint not found in manifest -->"
)

// Resolver turns bundle entrypoints and asset paths into references.
type Resolver interface {
	// Tags returns the script and link tags that load entry.
	Tags(entry string) template.HTML

	// ReactRefresh returns the tags needed by React fast refresh. Empty in
	// production.
	ReactRefresh() template.HTML

	// Asset resolves a source asset path to its URL.
	//
	// Example:
	//   resolver.Asset("assets/js/app.jsx") → "/assets/build/app.4f1c2b9e.js"
	Asset(source string) string
}

// manifestResolver serves production references from a Manifest.
type manifestResolver struct {
	manifest *Manifest
	prefix   string
}

// NewResolver creates a production Resolver. m may be nil when the manifest
// could not be loaded.
//
// The prefix is prepended to every output file, usually "/assets/build/".
func NewResolver(m *Manifest, prefix string) Resolver {
	return &manifestResolver{
		manifest: m,
		prefix:   prefix,
	}
}

func (r *manifestResolver) Tags(entry string) template.HTML {
	if r.manifest == nil {
		return MarkerManifestMissing
	}
	e, ok := r.manifest.Lookup(entry)
	if !ok {
		return MarkerEntryMissing
	}

	var b strings.Builder
	b.WriteString(`<script type="module" src="`)
	b.WriteString(template.HTMLEscapeString(r.prefix + e.File))
	b.WriteString(`"></script>`)
	for _, css := range e.CSS {
		b.WriteString(`<link rel="stylesheet" href="`)
		b.WriteString(template.HTMLEscapeString(r.prefix + css))
		b.WriteString(`">`)
	}
	for _, file := range r.manifest.Imports(entry) {
		b.WriteString(`<link rel="modulepreload" href="`)
		b.WriteString(template.HTMLEscapeString(r.prefix + file))
		b.WriteString(`">`)
	}
	return template.HTML(b.String())
}

func (r *manifestResolver) ReactRefresh() template.HTML {
	return ""
}

func (r *manifestResolver) Asset(source string) string {
	return r.prefix + r.manifest.Resolve(strings.TrimPrefix(source, "/"))
}

// devResolver points every reference at the Vite dev server.
type devResolver struct {
	baseURL string
}

// NewDevResolver creates a Resolver for development mode. It never reads a
// manifest: entries are loaded straight from the dev server at baseURL,
// together with its module reload client.
func NewDevResolver(baseURL string) Resolver {
	return &devResolver{baseURL: strings.TrimRight(baseURL, "/")}
}

func (d *devResolver) client() string {
	return `<script type="module" src="` + template.HTMLEscapeString(d.baseURL+"/@vite/client") + `"></script>`
}

func (d *devResolver) Tags(entry string) template.HTML {
	return template.HTML(d.client() +
		`<script type="module" src="` + template.HTMLEscapeString(d.Asset(entry)) + `"></script>`)
}

func (d *devResolver) ReactRefresh() template.HTML {
	return template.HTML(d.client())
}

func (d *devResolver) Asset(source string) string {
	return d.baseURL + "/" + strings.TrimPrefix(source, "/")
}
