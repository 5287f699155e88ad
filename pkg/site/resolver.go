package site

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/vango-dev/stcms/pkg/locale"
	"github.com/vango-dev/stcms/pkg/middleware"
	"github.com/vango-dev/stcms/pkg/render"
	"github.com/vango-dev/stcms/pkg/router"
	"github.com/vango-dev/stcms/pkg/session"
)

// NotFoundBody is the production answer when nothing could be rendered.
const NotFoundBody = "Page not found"

// Renderer renders a template id. *render.Engine implements it.
type Renderer interface {
	Render(ctx context.Context, id string, rc *render.Context) (string, error)
}

// Attempt is one step of the resolution chain and its outcome.
type Attempt struct {
	Candidate locale.Candidate
	Err       error
}

// Option configures a resolver.
type Option func(*chain)

// WithProfiles sets the profile service used for authenticated requests.
func WithProfiles(profiles session.ProfileFetcher) Option {
	return func(c *chain) {
		c.profiles = profiles
	}
}

// WithEnv sets the environment. Development sites answer an exhausted chain
// with a diagnostic page.
func WithEnv(env string) Option {
	return func(c *chain) {
		c.env = env
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *chain) {
		c.logger = logger
	}
}

// chain is the candidate loop shared by both resolvers.
type chain struct {
	renderer Renderer
	set      *locale.Set
	profiles session.ProfileFetcher
	env      string
	logger   *slog.Logger
}

func newChain(set *locale.Set, renderer Renderer, opts []Option) chain {
	c := chain{
		renderer: renderer,
		set:      set,
		env:      render.EnvProduction,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c *chain) development() bool {
	return c.env == render.EnvDevelopment
}

// run tries every candidate of loc in order. lang is the language exposed
// to templates.
func (c *chain) run(ctx context.Context, req *router.Request, loc locale.Location, lang string) *router.Response {
	base := &render.Context{
		Lang:            lang,
		Path:            req.Path,
		Method:          req.Method,
		Query:           req.Query,
		Form:            req.Form,
		Params:          req.Params,
		Env:             c.env,
		Languages:       c.set.Codes(),
		DefaultLanguage: c.set.Default(),
		Session:         session.FromAuthorization(req.Authorization, c.profiles, session.WithLogger(c.logger)),
	}

	var attempts []Attempt
	for _, cand := range loc.Candidates() {
		rc := base.WithContext(ctx)
		rc.ID = cand.ID

		body, err := c.renderer.Render(ctx, cand.Template, rc)
		if err == nil {
			middleware.RecordResolution(cand.Kind.String(), lang)
			return router.NewResponse(cand.Status, body)
		}

		attempts = append(attempts, Attempt{Candidate: cand, Err: err})
		middleware.RecordRenderError(render.KindOf(err).String())
		c.logger.DebugContext(ctx, "candidate failed",
			"path", req.Path,
			"step", cand.Kind.String(),
			"template", cand.Template,
			"error", err)
	}
	return c.terminal(ctx, req, lang, attempts)
}

// terminal answers a request no candidate could render.
func (c *chain) terminal(ctx context.Context, req *router.Request, lang string, attempts []Attempt) *router.Response {
	middleware.RecordResolution("terminal", lang)

	var last error
	if len(attempts) > 0 {
		last = attempts[len(attempts)-1].Err
	}
	c.logger.WarnContext(ctx, "page not found", "path", req.Path, "lang", lang, "error", last)

	if !c.development() {
		return router.Text(http.StatusNotFound, NotFoundBody)
	}

	d := render.NewDiagnostic(last)
	d.Path = req.Path
	d.Lang = lang
	for _, a := range attempts {
		d.Attempts = append(d.Attempts, render.DiagnosticAttempt{
			Step:     a.Candidate.Kind.String(),
			Template: a.Candidate.Template,
			Status:   a.Candidate.Status,
			Kind:     render.KindOf(a.Err).String(),
			Error:    a.Err.Error(),
		})
	}
	return router.NewResponse(http.StatusNotFound, render.DiagnosticPage(d))
}

// Multilingual resolves requests against per-language page trees.
type Multilingual struct {
	chain
}

// NewMultilingual creates a resolver for the languages in set.
func NewMultilingual(set *locale.Set, renderer Renderer, opts ...Option) *Multilingual {
	return &Multilingual{chain: newChain(set, renderer, opts)}
}

// Resolve implements router.Resolver.
func (m *Multilingual) Resolve(ctx context.Context, req *router.Request) *router.Response {
	loc := m.set.Locate(req.Path)
	return m.run(ctx, req, loc, loc.Lang)
}

// SingleLanguage resolves requests against one unprefixed page tree. The
// set's default language is exposed to templates.
type SingleLanguage struct {
	chain
}

// NewSingleLanguage creates a single-language resolver.
func NewSingleLanguage(set *locale.Set, renderer Renderer, opts ...Option) *SingleLanguage {
	return &SingleLanguage{chain: newChain(set, renderer, opts)}
}

// Resolve implements router.Resolver.
func (s *SingleLanguage) Resolve(ctx context.Context, req *router.Request) *router.Response {
	return s.run(ctx, req, locale.Single(req.Path), s.set.Default())
}
