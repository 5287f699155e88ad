package render

import (
	"bytes"
	"html/template"
	"strings"
)

// funcs returns the helpers available to every template. Helpers that
// depend on the request read rc; with rc nil they behave as for an
// anonymous request, which is what templates are parsed against.
func (e *Engine) funcs(rc *Context) template.FuncMap {
	return template.FuncMap{
		"vite_assets": func() template.HTML {
			return e.assets.Tags(e.cfg.Entrypoint)
		},
		"vite_entry": func(entry string) template.HTML {
			return e.assets.Tags(entry)
		},
		"vite_react_refresh": func() template.HTML {
			return e.assets.ReactRefresh()
		},
		"asset": func(path string) string {
			return e.assets.Asset(path)
		},
		"is_authenticated": func() bool {
			return rc != nil && rc.Authenticated()
		},
		"route": route,
		"markdown": func(src string) (template.HTML, error) {
			var buf bytes.Buffer
			if err := e.markdown.Convert([]byte(src), &buf); err != nil {
				return "", err
			}
			return template.HTML(buf.String()), nil
		},
		"live_reload": func() template.HTML {
			return e.cfg.LiveReload
		},
		"app_env": func() string {
			return e.cfg.Env
		},
		"lang_url": langURL,
	}
}

// route maps a route name to its URL. Names are URLs already, so it is a
// passthrough.
func route(name string) string {
	return name
}

// langURL builds the URL of a page in another language: lang_url "de" is
// "/de/", lang_url "de" "docs/installation" is "/de/docs/installation".
func langURL(lang string, path ...string) string {
	rest := strings.Trim(strings.Join(path, "/"), "/")
	if rest == "" {
		return "/" + lang + "/"
	}
	return "/" + lang + "/" + rest
}
