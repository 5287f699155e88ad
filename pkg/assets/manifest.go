// Package assets resolves references to the frontend bundle built by Vite.
//
// In development the bundle is served live by the Vite dev server and pages
// reference it directly. In production Vite writes a manifest.json mapping
// each source entrypoint to its hashed output:
//
//	{
//	  "assets/js/app.jsx": {
//	    "file": "app.4f1c2b9e.js",
//	    "src": "assets/js/app.jsx",
//	    "isEntry": true,
//	    "css": ["app.8d2e1a0c.css"],
//	    "imports": ["_vendor.93ab17de.js"]
//	  }
//	}
//
// This package loads that manifest and turns entrypoints into script and
// link tags:
//
//	manifest, err := assets.Load("public/assets/build/manifest.json")
//	resolver := assets.NewResolver(manifest, "/assets/build/")
//	resolver.Tags("assets/js/app.jsx")
//	// <script type="module" src="/assets/build/app.4f1c2b9e.js"></script>
//	// <link rel="stylesheet" href="/assets/build/app.8d2e1a0c.css">
package assets

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Entry is one record of the Vite manifest.
type Entry struct {
	File    string   `json:"file"`
	Src     string   `json:"src,omitempty"`
	IsEntry bool     `json:"isEntry,omitempty"`
	CSS     []string `json:"css,omitempty"`
	Imports []string `json:"imports,omitempty"`
}

// Manifest maps Vite source paths to their build outputs. It is immutable
// once loaded and safe for concurrent use.
type Manifest struct {
	entries map[string]Entry
}

// NewManifest creates a manifest from entries. The map is copied.
func NewManifest(entries map[string]Entry) *Manifest {
	m := &Manifest{entries: make(map[string]Entry, len(entries))}
	for k, v := range entries {
		m.entries[k] = v
	}
	return m
}

// Load reads a Vite manifest.json file.
//
// If the file does not exist or cannot be parsed, an error is returned. The
// caller is expected to log it and continue with a nil manifest; the
// production resolver then emits a marker comment instead of tags.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes manifest JSON.
func Parse(data []byte) (*Manifest, error) {
	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("assets: parse manifest: %w", err)
	}
	return &Manifest{entries: entries}, nil
}

// Lookup returns the entry for a source path.
func (m *Manifest) Lookup(source string) (Entry, bool) {
	if m == nil {
		return Entry{}, false
	}
	e, ok := m.entries[source]
	return e, ok
}

// Has returns true if the manifest contains the given source path.
func (m *Manifest) Has(source string) bool {
	_, ok := m.Lookup(source)
	return ok
}

// Resolve returns the output file for the given source path.
// If not found, returns the original path unchanged.
func (m *Manifest) Resolve(source string) string {
	if e, ok := m.Lookup(source); ok {
		return e.File
	}
	return source
}

// Len returns the number of entries in the manifest.
func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entrypoints returns the keys of entries marked isEntry, sorted.
func (m *Manifest) Entrypoints() []string {
	if m == nil {
		return nil
	}
	var out []string
	for k, e := range m.entries {
		if e.IsEntry {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Imports returns the output files of every chunk statically imported by
// source, transitively, sorted. Cycles are tolerated.
func (m *Manifest) Imports(source string) []string {
	seen := make(map[string]bool)
	m.collectImports(source, seen)

	files := make([]string, 0, len(seen))
	for key := range seen {
		if e, ok := m.Lookup(key); ok {
			files = append(files, e.File)
		}
	}
	sort.Strings(files)
	return files
}

func (m *Manifest) collectImports(source string, seen map[string]bool) {
	e, ok := m.Lookup(source)
	if !ok {
		return
	}
	for _, imp := range e.Imports {
		if !seen[imp] {
			seen[imp] = true
			m.collectImports(imp, seen)
		}
	}
}
