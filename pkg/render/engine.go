package render

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/stcms/pkg/assets"
)

// Environment modes.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// DefaultEntrypoint is the bundle entry used by vite_assets.
const DefaultEntrypoint = "assets/js/app.jsx"

// EngineConfig configures the template engine.
type EngineConfig struct {
	// Loader finds template files. Required.
	Loader *Loader

	// Assets resolves bundle references. Defaults to a production resolver
	// without a manifest, which renders marker comments.
	Assets assets.Resolver

	// Entrypoint is the bundle entry emitted by vite_assets.
	Entrypoint string

	// Env is EnvDevelopment or EnvProduction; exposed as app_env.
	Env string

	// Cache keeps parsed templates and syntax failures until Reset.
	// Missing templates are never cached.
	Cache bool

	// LiveReload is emitted by the live_reload helper. Empty disables it.
	LiveReload template.HTML

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Engine renders templates by id. It is safe for concurrent use.
type Engine struct {
	cfg      EngineConfig
	loader   *Loader
	assets   assets.Resolver
	markdown goldmark.Markdown
	tracer   trace.Tracer
	logger   *slog.Logger

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	compiled *compiled
	err      error
}

// NewEngine creates a template engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Loader == nil {
		cfg.Loader = NewLoader(DefaultExt)
	}
	if cfg.Assets == nil {
		cfg.Assets = assets.NewResolver(nil, "/assets/build/")
	}
	if cfg.Entrypoint == "" {
		cfg.Entrypoint = DefaultEntrypoint
	}
	if cfg.Env == "" {
		cfg.Env = EnvProduction
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		cfg:    cfg,
		loader: cfg.Loader,
		assets: cfg.Assets,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
		tracer: otel.Tracer("stcms/render"),
		logger: cfg.Logger,
		cache:  make(map[string]cacheEntry),
	}
}

// Loader returns the engine's template loader.
func (e *Engine) Loader() *Loader {
	return e.loader
}

// Development reports whether the engine runs in development mode.
func (e *Engine) Development() bool {
	return e.cfg.Env == EnvDevelopment
}

// cached returns the number of cache entries.
func (e *Engine) cached() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

// Reset drops every cached template.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]cacheEntry)
	e.logger.Debug("template cache cleared")
}

// Render executes the template id with rc and returns the output. Output
// is buffered: on failure nothing is returned. Failures are *Error values
// matching ErrTemplateNotFound, ErrTemplateSyntax or ErrTemplateRuntime.
func (e *Engine) Render(ctx context.Context, id string, rc *Context) (string, error) {
	ctx, span := e.tracer.Start(ctx, "render.template",
		trace.WithAttributes(attribute.String("stcms.template", id)),
	)
	defer span.End()

	out, err := e.render(ctx, id, rc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, KindOf(err).String())
		return "", err
	}
	span.SetAttributes(attribute.Int("stcms.bytes", len(out)))
	return out, nil
}

func (e *Engine) render(ctx context.Context, id string, rc *Context) (string, error) {
	c, err := e.lookup(id)
	if err != nil {
		return "", err
	}

	if rc == nil {
		rc = &Context{Env: e.cfg.Env}
	}
	rc = rc.WithContext(ctx)

	tmpl, err := c.tmpl.Clone()
	if err != nil {
		return "", e.withSearch(classify(id, err), c.files[c.entry])
	}
	tmpl.Funcs(e.funcs(rc))

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, c.entry, rc); err != nil {
		rerr := classify(id, err)
		return "", e.withSearch(rerr, c.files[rerr.Name])
	}
	return buf.String(), nil
}

func (e *Engine) lookup(id string) (*compiled, error) {
	if e.cfg.Cache {
		e.mu.RLock()
		entry, ok := e.cache[id]
		e.mu.RUnlock()
		if ok {
			return entry.compiled, entry.err
		}
	}

	c, err := e.compile(id)
	if e.cfg.Cache && KindOf(err) != KindNotFound {
		e.mu.Lock()
		e.cache[id] = cacheEntry{compiled: c, err: err}
		e.mu.Unlock()
	}
	return c, err
}
