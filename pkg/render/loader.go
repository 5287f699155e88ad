package render

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DefaultExt is the template file extension.
const DefaultExt = ".html"

// SearchPath is one directory templates are looked up in.
type SearchPath struct {
	// Dir is the display name, usually the directory on disk.
	Dir string
	FS  fs.FS

	// Pages marks a directory of pages. When any search path is marked,
	// rendered ids resolve only in pages directories; layouts and
	// includes still resolve on every path.
	Pages bool
}

// Dir returns a SearchPath for a directory on disk.
func Dir(dir string) SearchPath {
	return SearchPath{Dir: dir, FS: os.DirFS(dir)}
}

// Loader finds template sources on an ordered list of search paths. The
// first search path that has the file wins.
type Loader struct {
	paths []SearchPath
	ext   string
}

// NewLoader creates a Loader. An empty ext means DefaultExt.
func NewLoader(ext string, paths ...SearchPath) *Loader {
	if ext == "" {
		ext = DefaultExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &Loader{paths: paths, ext: ext}
}

// Ext returns the template file extension.
func (l *Loader) Ext() string {
	return l.ext
}

// Dirs returns the display names of the search paths, in order.
func (l *Loader) Dirs() []string {
	return dirsOf(l.paths)
}

func dirsOf(paths []SearchPath) []string {
	dirs := make([]string, len(paths))
	for i, p := range paths {
		dirs[i] = p.Dir
	}
	return dirs
}

// source is a loaded template file.
type source struct {
	name string
	file string
	text string
}

// Load reads the template called name from any search path. The name never
// carries the extension: "en/index" reads en/index.html, while
// "en/index.html" looks for en/index.html.html.
func (l *Loader) Load(name string) (*source, error) {
	return l.load(name, l.paths)
}

// LoadPage reads a page. Only pages directories are searched when any
// search path is marked as one.
func (l *Loader) LoadPage(name string) (*source, error) {
	return l.load(name, l.pagePaths())
}

func (l *Loader) pagePaths() []SearchPath {
	var pages []SearchPath
	for _, p := range l.paths {
		if p.Pages {
			pages = append(pages, p)
		}
	}
	if len(pages) == 0 {
		return l.paths
	}
	return pages
}

func (l *Loader) load(name string, paths []SearchPath) (*source, error) {
	rel := strings.TrimPrefix(name, "/") + l.ext

	notFound := &Error{
		Kind:     KindNotFound,
		Template: name,
		Name:     name,
		Searched: dirsOf(paths),
	}
	if !fs.ValidPath(rel) {
		notFound.Message = fmt.Sprintf("invalid template name %q", name)
		return nil, notFound
	}

	for _, p := range paths {
		display := filepath.ToSlash(path.Join(p.Dir, rel))
		data, err := fs.ReadFile(p.FS, rel)
		if err != nil {
			notFound.Tried = append(notFound.Tried, display)
			if !errors.Is(err, fs.ErrNotExist) && notFound.Err == nil {
				notFound.Err = err
			}
			continue
		}
		return &source{name: name, file: display, text: string(data)}, nil
	}

	notFound.Message = fmt.Sprintf("template %q not found", name)
	if notFound.Err == nil {
		notFound.Err = fs.ErrNotExist
	}
	return nil, notFound
}
