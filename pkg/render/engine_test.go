package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/stcms/pkg/assets"
	"github.com/vango-dev/stcms/pkg/session"
)

func site() (pages, templates, components fstest.MapFS) {
	pages = fstest.MapFS{
		"en/index.html": {Data: []byte(`{{/* extends "layouts/base" */}}
{{define "title"}}Home{{end}}
{{define "content"}}<h1>Welcome ({{.Lang}})</h1>{{end}}`)},
		"de/index.html": {Data: []byte(`{{/* extends "layouts/base" */}}
{{define "content"}}<h1>Willkommen</h1>{{end}}`)},
		"en/plain.html":   {Data: []byte(`plain {{.Path}}`)},
		"en/blog.html":    {Data: []byte(`post={{.ID}}`)},
		"en/docs.html":    {Data: []byte(`{{/* extends "layouts/docs" */}}{{define "body"}}docs body{{end}}`)},
		"en/nav.html":     {Data: []byte(`<p>{{template "partials/nav" .}}</p>`)},
		"en/broken.html":  {Data: []byte("<p>\n{{if}}\n</p>")},
		"en/runtime.html": {Data: []byte(`{{index .Languages 5}}`)},
		"en/escape.html":  {Data: []byte(`{{if .Lang}}<a href="{{else}}x{{end}}`)},
		"en/cycle.html":   {Data: []byte(`{{/* extends "layouts/a" */}}`)},
		"en/orphan.html":  {Data: []byte(`{{/* extends "layouts/missing" */}}`)},
		"en/lost.html":    {Data: []byte(`{{template "partials/none" .}}`)},
	}
	templates = fstest.MapFS{
		"layouts/base.html": {Data: []byte(`<title>{{block "title" .}}Site{{end}}</title><main>{{block "content" .}}{{end}}</main>`)},
		"layouts/docs.html": {Data: []byte(`{{/* extends "layouts/base" */}}{{define "content"}}<article>{{block "body" .}}{{end}}</article>{{end}}`)},
		"layouts/a.html":    {Data: []byte(`{{/* extends "layouts/b" */}}`)},
		"layouts/b.html":    {Data: []byte(`{{/* extends "layouts/a" */}}`)},
		"partials/nav.html": {Data: []byte(`nav {{template "button" .}}`)},
		// shadowed by pages
		"en/plain.html": {Data: []byte(`shadowed`)},
	}
	components = fstest.MapFS{
		"button.html": {Data: []byte(`<button>{{.Lang}}</button>`)},
	}
	return pages, templates, components
}

func newTestEngine(t *testing.T, cfg EngineConfig) *Engine {
	t.Helper()
	pages, templates, components := site()
	if cfg.Loader == nil {
		cfg.Loader = NewLoader(".html",
			SearchPath{Dir: "pages", FS: pages},
			SearchPath{Dir: "templates", FS: templates},
			SearchPath{Dir: "components", FS: components},
		)
	}
	return NewEngine(cfg)
}

func render(t *testing.T, e *Engine, id string, rc *Context) (string, error) {
	t.Helper()
	return e.Render(context.Background(), id, rc)
}

func TestRenderLayout(t *testing.T) {
	e := newTestEngine(t, EngineConfig{})

	out, err := render(t, e, "en/index", &Context{Lang: "en"})
	require.NoError(t, err)
	assert.Equal(t, `<title>Home</title><main><h1>Welcome (en)</h1></main>`, out)

	out, err = render(t, e, "de/index", &Context{Lang: "de"})
	require.NoError(t, err)
	assert.Equal(t, `<title>Site</title><main><h1>Willkommen</h1></main>`, out)
}

func TestRenderNestedLayouts(t *testing.T) {
	e := newTestEngine(t, EngineConfig{})
	out, err := render(t, e, "en/docs", nil)
	require.NoError(t, err)
	assert.Equal(t, `<title>Site</title><main><article>docs body</article></main>`, out)
}

func TestRenderSearchPathOrder(t *testing.T) {
	e := newTestEngine(t, EngineConfig{})
	out, err := render(t, e, "en/plain", &Context{Path: "/en/plain"})
	require.NoError(t, err)
	assert.Equal(t, "plain /en/plain", out)
}

func TestRenderIncludes(t *testing.T) {
	e := newTestEngine(t, EngineConfig{})
	out, err := render(t, e, "en/nav", &Context{Lang: "en"})
	require.NoError(t, err)
	assert.Equal(t, `<p>nav <button>en</button></p>`, out)
}

func TestRenderDynamicID(t *testing.T) {
	e := newTestEngine(t, EngineConfig{})
	out, err := render(t, e, "en/blog", &Context{ID: "my-post"})
	require.NoError(t, err)
	assert.Equal(t, "post=my-post", out)
}

func TestRenderNotFound(t *testing.T) {
	e := newTestEngine(t, EngineConfig{})
	_, err := render(t, e, "fr/index", nil)

	require.ErrorIs(t, err, ErrTemplateNotFound)
	assert.False(t, errors.Is(err, ErrTemplateSyntax))

	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, KindNotFound, rerr.Kind)
	assert.Equal(t, []string{"pages/fr/index.html", "templates/fr/index.html", "components/fr/index.html"}, rerr.Tried)
	assert.Equal(t, []string{"pages", "templates", "components"}, rerr.Searched)
}

func TestRenderInvalidName(t *testing.T) {
	e := newTestEngine(t, EngineConfig{})
	_, err := render(t, e, "en/../../etc/passwd", nil)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestRenderMissingLayout(t *testing.T) {
	e := newTestEngine(t, EngineConfig{})
	_, err := render(t, e, "en/orphan", nil)

	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, KindNotFound, rerr.Kind)
	assert.Equal(t, "en/orphan", rerr.Template)
	assert.Contains(t, rerr.Message, `layout "layouts/missing"`)
	assert.Equal(t, "pages/en/orphan.html", rerr.File)
}

func TestRenderMissingInclude(t *testing.T) {
	e := newTestEngine(t, EngineConfig{})
	_, err := render(t, e, "en/lost", nil)

	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, KindNotFound, rerr.Kind)
	assert.Contains(t, rerr.Message, `include "partials/none"`)
}

func TestRenderCircularLayout(t *testing.T) {
	e := newTestEngine(t, EngineConfig{})
	_, err := render(t, e, "en/cycle", nil)

	require.ErrorIs(t, err, ErrTemplateSyntax)
	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "circular layout inheritance: en/cycle -> layouts/a -> layouts/b -> layouts/a", rerr.Message)
}

func TestRenderSyntaxError(t *testing.T) {
	e := newTestEngine(t, EngineConfig{})
	_, err := render(t, e, "en/broken", nil)

	require.ErrorIs(t, err, ErrTemplateSyntax)
	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "pages/en/broken.html", rerr.File)
	assert.Equal(t, 2, rerr.Line)
}

func TestRenderEscapeErrorIsSyntax(t *testing.T) {
	e := newTestEngine(t, EngineConfig{})
	_, err := render(t, e, "en/escape", &Context{Lang: "en"})
	assert.ErrorIs(t, err, ErrTemplateSyntax)
}

func TestRenderRuntimeError(t *testing.T) {
	e := newTestEngine(t, EngineConfig{})
	out, err := render(t, e, "en/runtime", &Context{Languages: []string{"en"}})

	require.ErrorIs(t, err, ErrTemplateRuntime)
	assert.Empty(t, out)
	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "pages/en/runtime.html", rerr.File)
}

func TestRenderCache(t *testing.T) {
	pages := fstest.MapFS{"en/index.html": {Data: []byte("v1")}}
	loader := NewLoader("", SearchPath{Dir: "pages", FS: pages})

	cached := NewEngine(EngineConfig{Loader: loader, Cache: true})
	uncached := NewEngine(EngineConfig{Loader: loader})

	out, err := render(t, cached, "en/index", nil)
	require.NoError(t, err)
	assert.Equal(t, "v1", out)

	pages["en/index.html"] = &fstest.MapFile{Data: []byte("v2")}

	out, _ = render(t, cached, "en/index", nil)
	assert.Equal(t, "v1", out)
	out, _ = render(t, uncached, "en/index", nil)
	assert.Equal(t, "v2", out)

	cached.Reset()
	out, _ = render(t, cached, "en/index", nil)
	assert.Equal(t, "v2", out)
}

func TestRenderCacheSkipsMisses(t *testing.T) {
	pages := fstest.MapFS{}
	e := NewEngine(EngineConfig{Loader: NewLoader("", SearchPath{Dir: "pages", FS: pages}), Cache: true})

	_, err := render(t, e, "en/new", nil)
	require.ErrorIs(t, err, ErrTemplateNotFound)

	pages["en/new.html"] = &fstest.MapFile{Data: []byte("new")}
	out, err := render(t, e, "en/new", nil)
	require.NoError(t, err)
	assert.Equal(t, "new", out)
	assert.Equal(t, 1, e.cached())
}

func TestRenderCacheDoesNotGrowWithMissingIDs(t *testing.T) {
	e := newTestEngine(t, EngineConfig{Cache: true})

	for i := 0; i < 1000; i++ {
		_, err := render(t, e, fmt.Sprintf("en/random-%d", i), nil)
		require.ErrorIs(t, err, ErrTemplateNotFound)
	}
	_, err := render(t, e, "en/orphan", nil)
	require.ErrorIs(t, err, ErrTemplateNotFound)
	assert.Zero(t, e.cached())

	_, err = render(t, e, "en/broken", nil)
	require.ErrorIs(t, err, ErrTemplateSyntax)
	assert.Equal(t, 1, e.cached())
}

func TestRenderRejectsExtension(t *testing.T) {
	e := newTestEngine(t, EngineConfig{})

	_, err := render(t, e, "en/plain.html", nil)
	require.ErrorIs(t, err, ErrTemplateNotFound)

	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "pages/en/plain.html.html", rerr.Tried[0])
}

func TestRenderPagesOnly(t *testing.T) {
	pages, templates, components := site()
	e := NewEngine(EngineConfig{Loader: NewLoader(".html",
		SearchPath{Dir: "pages", FS: pages, Pages: true},
		SearchPath{Dir: "templates", FS: templates},
		SearchPath{Dir: "components", FS: components},
	)})

	out, err := render(t, e, "en/nav", &Context{Lang: "en"})
	require.NoError(t, err)
	assert.Equal(t, `<p>nav <button>en</button></p>`, out)

	for _, id := range []string{"layouts/base", "partials/nav", "button"} {
		_, err := render(t, e, id, nil)
		require.ErrorIs(t, err, ErrTemplateNotFound, id)

		var rerr *Error
		require.True(t, errors.As(err, &rerr))
		assert.Equal(t, []string{"pages"}, rerr.Searched, id)
	}
}

func TestRenderConcurrent(t *testing.T) {
	e := newTestEngine(t, EngineConfig{Cache: true})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := render(t, e, "en/index", &Context{Lang: "en"})
			assert.NoError(t, err)
			assert.Contains(t, out, "Welcome (en)")
		}()
	}
	wg.Wait()
}

type countingFetcher struct {
	mu    sync.Mutex
	calls int
}

func (f *countingFetcher) Profile(ctx context.Context, token string) (session.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return session.User{"name": "Ada"}, nil
}

func TestRenderUserIsLazy(t *testing.T) {
	pages := fstest.MapFS{
		"en/anon.html": {Data: []byte(`{{if is_authenticated}}in{{else}}out{{end}}`)},
		"en/user.html": {Data: []byte(`{{with .User}}{{.name}}{{end}}/{{.User.name}}`)},
	}
	e := NewEngine(EngineConfig{Loader: NewLoader("", SearchPath{Dir: "pages", FS: pages})})

	f := &countingFetcher{}
	rc := &Context{Session: session.New("tok", f)}

	out, err := render(t, e, "en/anon", rc)
	require.NoError(t, err)
	assert.Equal(t, "in", out)
	assert.Equal(t, 0, f.calls)

	out, err = render(t, e, "en/user", rc)
	require.NoError(t, err)
	assert.Equal(t, "Ada/Ada", out)
	assert.Equal(t, 1, f.calls)

	out, err = render(t, e, "en/anon", &Context{})
	require.NoError(t, err)
	assert.Equal(t, "out", out)
}

func TestHelpers(t *testing.T) {
	pages := fstest.MapFS{
		"en/vite.html":     {Data: []byte(`{{vite_assets}}`)},
		"en/entry.html":    {Data: []byte(`{{vite_entry "assets/js/admin.ts"}}`)},
		"en/refresh.html":  {Data: []byte(`{{vite_react_refresh}}`)},
		"en/asset.html":    {Data: []byte(`<img src="{{asset "img/logo.png"}}">`)},
		"en/route.html":    {Data: []byte(`<a href="{{route "/en/about"}}">`)},
		"en/lang.html":     {Data: []byte(`{{lang_url "de"}} {{lang_url "de" "docs/installation"}}`)},
		"en/markdown.html": {Data: []byte(`{{markdown "# Hi\n\n*there*"}}`)},
		"en/env.html":      {Data: []byte(`{{app_env}}|{{live_reload}}`)},
	}
	loader := NewLoader("", SearchPath{Dir: "pages", FS: pages})

	dev := NewEngine(EngineConfig{
		Loader:     loader,
		Env:        EnvDevelopment,
		Assets:     assets.NewDevResolver("http://localhost:5173"),
		LiveReload: "<script>reload</script>",
	})
	prod := NewEngine(EngineConfig{
		Loader: loader,
		Assets: assets.NewResolver(assets.NewManifest(map[string]assets.Entry{
			"assets/js/app.jsx": {File: "app.1.js", CSS: []string{"app.2.css"}},
		}), "/assets/build/"),
	})

	tests := []struct {
		name   string
		engine *Engine
		id     string
		want   string
	}{
		{"dev vite", dev, "en/vite", `<script type="module" src="http://localhost:5173/@vite/client"></script><script type="module" src="http://localhost:5173/assets/js/app.jsx"></script>`},
		{"prod vite", prod, "en/vite", `<script type="module" src="/assets/build/app.1.js"></script><link rel="stylesheet" href="/assets/build/app.2.css">`},
		{"prod missing entry", prod, "en/entry", assets.MarkerEntryMissing},
		{"dev refresh", dev, "en/refresh", `<script type="module" src="http://localhost:5173/@vite/client"></script>`},
		{"prod refresh", prod, "en/refresh", ``},
		{"asset", prod, "en/asset", `<img src="/assets/build/img/logo.png">`},
		{"route", prod, "en/route", `<a href="/en/about">`},
		{"lang url", prod, "en/lang", `/de/ /de/docs/installation`},
		{"dev env", dev, "en/env", `development|<script>reload</script>`},
		{"prod env", prod, "en/env", `production|`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := render(t, tt.engine, tt.id, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	out, err := render(t, prod, "en/markdown", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Hi</h1>")
	assert.Contains(t, out, "<em>there</em>")
}

func TestDiagnosticPage(t *testing.T) {
	e := newTestEngine(t, EngineConfig{})
	_, err := render(t, e, "en/broken", nil)
	require.Error(t, err)

	d := NewDiagnostic(err)
	d.Path = "/en/<script>"
	d.Lang = "en"
	d.Attempts = []DiagnosticAttempt{
		{Step: "exact", Template: "en/broken", Status: 200, Kind: "TemplateSyntaxInvalid", Error: "missing value for if"},
	}
	page := DiagnosticPage(d)

	assert.Contains(t, page, "TemplateSyntaxInvalid")
	assert.Contains(t, page, "pages/en/broken.html:2")
	assert.Contains(t, page, "<li>templates</li>")
	assert.Contains(t, page, "/en/&lt;script&gt;")
	assert.False(t, strings.Contains(page, "/en/<script>"))
}
