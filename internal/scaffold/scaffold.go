package scaffold

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/vango-dev/stcms/internal/errors"
)

// langDir is replaced by each language in file paths.
const langDir = "{lang}"

// Config contains template configuration.
type Config struct {
	// Name is the name of the site.
	Name string

	// Languages are the site languages. The first is the default.
	Languages []string

	// Force allows creating into a non-empty directory.
	Force bool
}

// data is passed to file templates.
type data struct {
	Name      string
	Lang      string
	Languages []string
	Default   string
}

// LanguageList returns the languages as a yaml flow sequence.
func (d data) LanguageList() string {
	return "[" + strings.Join(d.Languages, ", ") + "]"
}

// Template represents a site template.
type Template struct {
	// Name is the template name.
	Name string

	// Description describes the template.
	Description string

	// Files maps relative paths to contents. Paths containing {lang} are
	// written once per language.
	Files map[string]string
}

// Available templates.
var templates = map[string]*Template{
	"minimal":      minimalTemplate(),
	"multilingual": multilingualTemplate(),
}

// Get returns a template by name.
func Get(name string) (*Template, error) {
	tmpl, ok := templates[name]
	if !ok {
		return nil, errors.New(errors.CodeUnknownScaffold).
			WithDetail("Template '" + name + "' not found.")
	}
	return tmpl, nil
}

// List returns all available template names, sorted.
func List() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create generates a site in dir. It returns the written paths relative to
// dir, sorted.
func (t *Template) Create(dir string, cfg Config) ([]string, error) {
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"en"}
	}
	if cfg.Name == "" {
		cfg.Name = filepath.Base(dir)
	}
	if !cfg.Force {
		if entries, err := os.ReadDir(dir); err == nil && len(entries) > 0 {
			return nil, errors.New(errors.CodeProjectNotEmpty).WithLocation(dir, 0, 0)
		}
	}

	base := data{Name: cfg.Name, Languages: cfg.Languages, Default: cfg.Languages[0]}
	var written []string
	for relPath, content := range t.Files {
		langs := []string{""}
		if strings.Contains(relPath, langDir) {
			langs = cfg.Languages
		}
		for _, lang := range langs {
			d := base
			d.Lang = lang
			target := strings.ReplaceAll(relPath, langDir, lang)
			if err := writeFile(dir, target, content, d); err != nil {
				return nil, err
			}
			written = append(written, target)
		}
	}
	sort.Strings(written)
	return written, nil
}

func writeFile(dir, relPath, content string, d data) error {
	tmpl, err := template.New(relPath).Delims("[[", "]]").Parse(content)
	if err != nil {
		return errors.Newf(errors.CategoryCLI, "invalid template %s: %v", relPath, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, d); err != nil {
		return errors.Newf(errors.CategoryCLI, "template execute error %s: %v", relPath, err)
	}

	fullPath := filepath.Join(dir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(fullPath), err)
	}
	return os.WriteFile(fullPath, buf.Bytes(), 0o644)
}

const gitignore = `node_modules/
public/assets/build/
.env
`

const envExample = `APP_ENV=development
API_BASE_URL=http://localhost:8080
VITE_BASE_URL=http://localhost:5173
`

// minimalTemplate returns the minimal template.
func minimalTemplate() *Template {
	return &Template{
		Name:        "minimal",
		Description: "A single-language site without layouts",
		Files: map[string]string{
			".gitignore":   gitignore,
			".env.example": envExample,
			"stcms.yaml": `app_env: development
default_language: [[.Default]]
routing: single
`,
			"pages/index.html": `<!doctype html>
<html lang="[[.Default]]">
<head>
  <meta charset="utf-8">
  <title>[[.Name]]</title>
  {{vite_assets}}
</head>
<body>
  <h1>[[.Name]]</h1>
  {{live_reload}}
</body>
</html>
`,
			"pages/404.html": `<!doctype html>
<title>Not found</title>
<p>Nothing lives at {{.Path}}.</p>
`,
		},
	}
}

// multilingualTemplate returns the multilingual template.
func multilingualTemplate() *Template {
	return &Template{
		Name:        "multilingual",
		Description: "Per-language pages sharing one layout",
		Files: map[string]string{
			".gitignore":   gitignore,
			".env.example": envExample,
			"stcms.yaml": `app_env: development
default_language: [[.Default]]
languages: [[.LanguageList]]
routing: multilingual
redirect_root: true
`,
			"templates/layouts/base.html": `<!doctype html>
<html lang="{{.Lang}}">
<head>
  <meta charset="utf-8">
  <title>{{block "title" .}}[[.Name]]{{end}}</title>
  {{vite_assets}}
</head>
<body>
  {{template "partials/nav" .}}
  <main>{{block "content" .}}{{end}}</main>
  {{live_reload}}
</body>
</html>
`,
			"templates/partials/nav.html": `<nav>
  {{range .Languages}}<a href="/{{.}}/">{{.}}</a> {{end}}
  {{if is_authenticated}}<a href="/{{.Lang}}/account">account</a>{{end}}
</nav>
`,
			"pages/{lang}/index.html": `{{/* extends "layouts/base" */}}
{{define "content"}}<h1>[[.Name]] ([[.Lang]])</h1>
<p><a href="/[[.Lang]]/blog/hello">hello</a></p>{{end}}
`,
			"pages/{lang}/blog.html": `{{/* extends "layouts/base" */}}
{{define "title"}}{{.ID}}{{end}}
{{define "content"}}<article><h1>{{.ID}}</h1></article>{{end}}
`,
			"pages/{lang}/404.html": `{{/* extends "layouts/base" */}}
{{define "content"}}<p>Nothing lives at {{.Path}}.</p>{{end}}
`,
		},
	}
}
