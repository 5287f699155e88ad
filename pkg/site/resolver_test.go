package site

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/stcms/pkg/locale"
	"github.com/vango-dev/stcms/pkg/render"
	"github.com/vango-dev/stcms/pkg/router"
	"github.com/vango-dev/stcms/pkg/session"
)

func pages() fstest.MapFS {
	return fstest.MapFS{
		"en/index.html":             {Data: []byte(`en home`)},
		"en/404.html":               {Data: []byte(`en missing {{.Path}}`)},
		"en/blog.html":              {Data: []byte(`post {{.ID}}`)},
		"en/docs/index.html":        {Data: []byte(`en docs index`)},
		"en/docs/installation.html": {Data: []byte(`en install`)},
		"en/account.html":           {Data: []byte(`{{if is_authenticated}}hi {{with .User}}{{.name}}{{end}}{{else}}anon{{end}}`)},
		"en/search.html":            {Data: []byte(`q={{.Query.Get "q"}}`)},
		"de/index.html":             {Data: []byte(`de home`)},
		"de/docs/installation.html": {Data: []byte(`de install`)},
		"de/about.html":             {Data: []byte(`de about`)},
	}
}

func newEngine(fsys fstest.MapFS, env string) *render.Engine {
	return render.NewEngine(render.EngineConfig{
		Loader: render.NewLoader(".html", render.SearchPath{Dir: "pages", FS: fsys}),
		Env:    env,
	})
}

func get(path string) *router.Request {
	return &router.Request{Method: http.MethodGet, Path: path}
}

func newMultilingual(env string, opts ...Option) *Multilingual {
	set := locale.NewSet([]string{"en", "de"}, "en")
	return NewMultilingual(set, newEngine(pages(), env), append([]Option{WithEnv(env)}, opts...)...)
}

func TestMultilingualResolve(t *testing.T) {
	m := newMultilingual(render.EnvProduction)

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/", http.StatusOK, "en home"},
		{"/de/docs/installation", http.StatusOK, "de install"},
		{"/de", http.StatusOK, "de home"},
		{"/en/docs/installation", http.StatusOK, "en install"},
		{"/docs/installation", http.StatusOK, "en install"},
		{"/en/docs", http.StatusOK, "en docs index"},
		{"/en/blog/my-post", http.StatusOK, "post my-post"},
		{"/fr/anything", http.StatusNotFound, "en missing /fr/anything"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := m.Resolve(context.Background(), get(tt.path))
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, tt.body, string(resp.Body))
			assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
		})
	}
}

func TestMultilingualLanguageScoping(t *testing.T) {
	m := newMultilingual(render.EnvProduction)

	// de/about exists but en/about does not, and de has no 404 page.
	resp := m.Resolve(context.Background(), get("/en/about"))
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, "en missing /en/about", string(resp.Body))

	// en/docs/index exists but de/docs/index does not.
	resp = m.Resolve(context.Background(), get("/de/docs"))
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, NotFoundBody, string(resp.Body))
}

func TestMultilingualProductionNotFound(t *testing.T) {
	fsys := pages()
	delete(fsys, "en/404.html")
	set := locale.NewSet([]string{"en"}, "en")
	m := NewMultilingual(set, newEngine(fsys, render.EnvProduction))

	resp := m.Resolve(context.Background(), get("/missing/page"))
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, NotFoundBody, string(resp.Body))
}

func TestMultilingualDevelopmentDiagnostic(t *testing.T) {
	fsys := pages()
	delete(fsys, "en/404.html")
	set := locale.NewSet([]string{"en"}, "en")
	m := NewMultilingual(set, newEngine(fsys, render.EnvDevelopment), WithEnv(render.EnvDevelopment))

	resp := m.Resolve(context.Background(), get("/blog/x/y"))
	require.Equal(t, http.StatusNotFound, resp.Status)

	body := string(resp.Body)
	assert.Contains(t, body, "TemplateNotFound")
	assert.Contains(t, body, "en/blog/x/y")
	assert.Contains(t, body, "en/blog/x/y/index")
	assert.Contains(t, body, "en/404")
	assert.Contains(t, body, "pages")
}

func TestDevelopmentDiagnosticOnlyAtTerminal(t *testing.T) {
	fsys := pages()
	fsys["en/broken.html"] = &fstest.MapFile{Data: []byte("{{if}}")}
	set := locale.NewSet([]string{"en"}, "en")
	m := NewMultilingual(set, newEngine(fsys, render.EnvDevelopment), WithEnv(render.EnvDevelopment))

	// The broken exact candidate falls through to the 404 page.
	resp := m.Resolve(context.Background(), get("/broken"))
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, "en missing /broken", string(resp.Body))
}

func TestResolvePassesRequestData(t *testing.T) {
	m := newMultilingual(render.EnvProduction)

	req := get("/en/search")
	req.Query = url.Values{"q": {"go"}}
	resp := m.Resolve(context.Background(), req)
	assert.Equal(t, "q=go", string(resp.Body))
}

type countingProfiles struct {
	calls atomic.Int32
	err   error
}

func (p *countingProfiles) Profile(ctx context.Context, token string) (session.User, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return session.User{"name": "Ada"}, nil
}

func TestResolveSession(t *testing.T) {
	profiles := &countingProfiles{}
	m := newMultilingual(render.EnvProduction, WithProfiles(profiles))

	resp := m.Resolve(context.Background(), get("/en/account"))
	assert.Equal(t, "anon", string(resp.Body))
	assert.Zero(t, profiles.calls.Load())

	req := get("/en/account")
	req.Authorization = "Bearer tok"
	resp = m.Resolve(context.Background(), req)
	assert.Equal(t, "hi Ada", string(resp.Body))
	assert.Equal(t, int32(1), profiles.calls.Load())
}

func TestResolveSessionProfileFailure(t *testing.T) {
	profiles := &countingProfiles{err: errors.New("unavailable")}
	m := newMultilingual(render.EnvProduction, WithProfiles(profiles))

	req := get("/en/account")
	req.Authorization = "Bearer tok"
	resp := m.Resolve(context.Background(), req)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "hi ", string(resp.Body))
}

type recordingRenderer struct {
	ids []string
}

func (r *recordingRenderer) Render(ctx context.Context, id string, rc *render.Context) (string, error) {
	r.ids = append(r.ids, id+"#"+rc.ID)
	return "", &render.Error{Kind: render.KindNotFound, Template: id, Message: "missing"}
}

func TestCandidateOrder(t *testing.T) {
	rec := &recordingRenderer{}
	set := locale.NewSet([]string{"en"}, "en")
	resp := NewMultilingual(set, rec).Resolve(context.Background(), get("/en/blog/my-post"))

	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, []string{
		"en/blog#my-post",
		"en/blog/my-post#",
		"en/blog/my-post/index#",
		"en/404#",
	}, rec.ids)
}

func TestSingleLanguage(t *testing.T) {
	fsys := fstest.MapFS{
		"index.html":    {Data: []byte(`home {{.Lang}}`)},
		"about.html":    {Data: []byte(`about`)},
		"blog.html":     {Data: []byte(`post {{.ID}}`)},
		"404.html":      {Data: []byte(`missing`)},
		"en/index.html": {Data: []byte(`prefixed`)},
	}
	set := locale.NewSet([]string{"en"}, "en")
	s := NewSingleLanguage(set, newEngine(fsys, render.EnvProduction))

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/", http.StatusOK, "home en"},
		{"/about", http.StatusOK, "about"},
		{"/blog/hello", http.StatusOK, "post hello"},
		{"/en", http.StatusOK, "prefixed"},
		{"/nope", http.StatusNotFound, "missing"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := s.Resolve(context.Background(), get(tt.path))
			assert.Equal(t, tt.status, resp.Status)
			assert.True(t, strings.HasPrefix(string(resp.Body), tt.body), string(resp.Body))
		})
	}
}
