package stcms

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/vango-dev/stcms/internal/dev"
	"github.com/vango-dev/stcms/pkg/apiclient"
	"github.com/vango-dev/stcms/pkg/assets"
	"github.com/vango-dev/stcms/pkg/locale"
	"github.com/vango-dev/stcms/pkg/render"
	"github.com/vango-dev/stcms/pkg/router"
	"github.com/vango-dev/stcms/pkg/routepath"
	"github.com/vango-dev/stcms/pkg/site"
)

// maxFormBytes bounds request bodies decoded into Request.Form.
const maxFormBytes = 1 << 20

// =============================================================================
// App Type
// =============================================================================

// App is the site entry point. It wires the language set, template engine,
// asset resolver and profile client into a Router, and serves it over HTTP.
//
//	cfg := stcms.DefaultConfig()
//	cfg.Env = os.Getenv("APP_ENV")
//	app, err := stcms.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	http.ListenAndServe(":8080", app)
type App struct {
	router    *router.Router
	languages *locale.Set
	engine    *render.Engine
	manifest  *assets.Manifest
	api       *apiclient.Client

	// Static file serving
	staticDir    string
	staticPrefix string
	staticFS     http.FileSystem

	config Config
	logger *slog.Logger
}

// New creates an App. Missing directories and a missing manifest degrade
// with a warning; only unreadable page trees fail.
func New(cfg Config) (*App, error) {
	cfg = applyDefaults(cfg)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{
		staticDir:    cfg.Static.Dir,
		staticPrefix: cfg.Static.Prefix,
		config:       cfg,
		logger:       logger,
	}

	languages, err := a.loadLanguages()
	if err != nil {
		return nil, err
	}
	a.languages = languages

	a.api = apiclient.New(cfg.APIBaseURL, apiclient.WithTimeout(cfg.ProfileTimeout))

	var resolver assets.Resolver
	if a.Development() {
		resolver = assets.NewDevResolver(cfg.ViteBaseURL)
	} else {
		a.manifest = a.loadManifest()
		resolver = assets.NewResolver(a.manifest, cfg.Assets.Prefix)
	}

	var liveReload template.HTML
	if cfg.LiveReload && a.Development() {
		liveReload = dev.ClientTag()
	}

	a.engine = render.NewEngine(render.EngineConfig{
		Loader:     render.NewLoader(cfg.TemplateExt, a.searchPaths()...),
		Assets:     resolver,
		Entrypoint: cfg.Assets.Entrypoint,
		Env:        cfg.Env,
		Cache:      cfg.CacheTemplates,
		LiveReload: liveReload,
		Logger:     logger,
	})

	opts := []site.Option{
		site.WithProfiles(a.api),
		site.WithEnv(cfg.Env),
		site.WithLogger(logger),
	}
	var fallback router.Resolver
	if cfg.Routing == RoutingSingle {
		fallback = site.NewSingleLanguage(a.languages, a.engine, opts...)
	} else {
		fallback = site.NewMultilingual(a.languages, a.engine, opts...)
	}

	a.router = router.New(
		router.WithResolver(fallback),
		router.WithLogger(logger),
		router.WithDebug(a.Development()),
	)
	a.router.Post(apiclient.LoginPath, a.handleLogin)

	if cfg.Static.Dir != "" {
		a.staticFS = a.staticFileSystem(cfg.Static.Dir)
	}

	logger.Info("site initialized",
		"env", cfg.Env,
		"languages", a.languages.String(),
		"default_language", a.languages.Default(),
		"routing", string(cfg.Routing),
		"vite_base_url", cfg.ViteBaseURL,
		"api_base_url", cfg.APIBaseURL)

	return a, nil
}

func applyDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Env == "" {
		cfg.Env = def.Env
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = def.APIBaseURL
	}
	if cfg.ViteBaseURL == "" {
		cfg.ViteBaseURL = def.ViteBaseURL
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = def.DefaultLanguage
	}
	if cfg.Routing == "" {
		cfg.Routing = def.Routing
	}
	if cfg.PagesDir == "" {
		cfg.PagesDir = def.PagesDir
	}
	if len(cfg.TemplatePaths) == 0 {
		cfg.TemplatePaths = []string{cfg.PagesDir, "templates", "components"}
	}
	if cfg.Assets.Entrypoint == "" {
		cfg.Assets.Entrypoint = def.Assets.Entrypoint
	}
	if cfg.Assets.Manifest == "" {
		cfg.Assets.Manifest = def.Assets.Manifest
	}
	if cfg.Assets.Prefix == "" {
		cfg.Assets.Prefix = def.Assets.Prefix
	}
	if cfg.Static.Prefix == "" {
		cfg.Static.Prefix = "/"
	}
	if cfg.ProfileTimeout <= 0 {
		cfg.ProfileTimeout = def.ProfileTimeout
	}
	return cfg
}

// dirFS returns the filesystem rooted at dir.
func (a *App) dirFS(dir string) fs.FS {
	if a.config.FS == nil {
		return os.DirFS(dir)
	}
	sub, err := fs.Sub(a.config.FS, path.Clean(dir))
	if err != nil {
		return a.config.FS
	}
	return sub
}

func (a *App) searchPaths() []render.SearchPath {
	paths := make([]render.SearchPath, 0, len(a.config.TemplatePaths))
	for _, dir := range a.config.TemplatePaths {
		paths = append(paths, render.SearchPath{
			Dir:   dir,
			FS:    a.dirFS(dir),
			Pages: path.Clean(dir) == path.Clean(a.config.PagesDir),
		})
	}
	return paths
}

func (a *App) loadLanguages() (*locale.Set, error) {
	if len(a.config.Languages) > 0 {
		set := locale.NewSet(a.config.Languages, a.config.DefaultLanguage)
		if set.Default() != a.config.DefaultLanguage {
			a.logger.Warn("default language not available",
				"requested", a.config.DefaultLanguage,
				"using", set.Default())
		}
		return set, nil
	}
	if a.config.Routing == RoutingSingle {
		return locale.NewSet([]string{a.config.DefaultLanguage}, a.config.DefaultLanguage), nil
	}
	set, err := locale.Discover(a.dirFS(a.config.PagesDir), a.config.DefaultLanguage, a.logger)
	if err != nil {
		return nil, fmt.Errorf("discover languages in %s: %w", a.config.PagesDir, err)
	}
	return set, nil
}

// loadManifest reads the Vite manifest. Failures are logged and yield a nil
// manifest, which renders marker comments.
func (a *App) loadManifest() *assets.Manifest {
	var (
		m   *assets.Manifest
		err error
	)
	if a.config.FS != nil {
		var data []byte
		data, err = fs.ReadFile(a.config.FS, path.Clean(a.config.Assets.Manifest))
		if err == nil {
			m, err = assets.Parse(data)
		}
	} else {
		m, err = assets.Load(a.config.Assets.Manifest)
	}
	if err != nil {
		a.logger.Warn("vite manifest unavailable", "path", a.config.Assets.Manifest, "error", err)
		return nil
	}
	return m
}

func (a *App) staticFileSystem(dir string) http.FileSystem {
	if a.config.FS == nil {
		return http.Dir(dir)
	}
	return http.FS(a.dirFS(dir))
}

// =============================================================================
// Accessors
// =============================================================================

// Router returns the route table. Routes must be registered before the App
// serves its first request.
func (a *App) Router() *router.Router { return a.router }

// Languages returns the supported languages.
func (a *App) Languages() *locale.Set { return a.languages }

// Engine returns the template engine.
func (a *App) Engine() *render.Engine { return a.engine }

// Manifest returns the Vite manifest, or nil in development or when it could
// not be read.
func (a *App) Manifest() *assets.Manifest { return a.manifest }

// API returns the profile and auth service client.
func (a *App) API() *apiclient.Client { return a.api }

// Config returns the effective configuration.
func (a *App) Config() Config { return a.config }

// Logger returns the App logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Development reports whether the App runs in development mode.
func (a *App) Development() bool { return a.config.Env == render.EnvDevelopment }

// Get registers a GET route.
func (a *App) Get(pattern string, h router.Handler) { a.router.Get(pattern, h) }

// Post registers a POST route.
func (a *App) Post(pattern string, h router.Handler) { a.router.Post(pattern, h) }

// =============================================================================
// Dispatch
// =============================================================================

// Dispatch resolves one request. rawPath may carry a query string, which is
// used when query is nil. authorization is the raw Authorization header.
func (a *App) Dispatch(ctx context.Context, method, rawPath string, query, body url.Values, authorization string) *router.Response {
	p, rawQuery, _ := strings.Cut(rawPath, "?")
	if query == nil && rawQuery != "" {
		query, _ = url.ParseQuery(rawQuery)
	}
	p, err := routepath.Clean(p)
	if err != nil {
		return router.Text(http.StatusBadRequest, "Bad Request")
	}
	return a.router.Dispatch(ctx, &router.Request{
		Method:        strings.ToUpper(method),
		Path:          p,
		Query:         query,
		Form:          body,
		Authorization: authorization,
	})
}

// =============================================================================
// http.Handler Implementation
// =============================================================================

// ServeHTTP implements http.Handler. Static files win over routes; "/" is
// redirected to the preferred language when RedirectRoot is set.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Path

	if a.staticFS != nil && a.shouldServeStatic(p) {
		a.serveStatic(w, r)
		return
	}

	if a.redirectRoot(w, r) {
		return
	}

	p, err := routepath.Clean(p)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var form url.Values
	if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		form = r.PostForm
	}

	resp := a.router.Dispatch(r.Context(), &router.Request{
		Method:        r.Method,
		Path:          p,
		Query:         r.URL.Query(),
		Form:          form,
		Authorization: r.Header.Get("Authorization"),
		Header:        r.Header,
	})
	resp.Send(w)
}

func (a *App) redirectRoot(w http.ResponseWriter, r *http.Request) bool {
	if !a.config.RedirectRoot || a.config.Routing == RoutingSingle {
		return false
	}
	if r.URL.Path != "/" || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
		return false
	}
	lang := a.languages.Match(r.Header.Get("Accept-Language"))
	http.Redirect(w, r, "/"+lang+"/", http.StatusFound)
	return true
}

// =============================================================================
// Built-in Routes
// =============================================================================

type loginResponse struct {
	Token string `json:"token,omitempty"`
	Error string `json:"error,omitempty"`
}

// handleLogin exchanges form credentials for a token with the auth service.
func (a *App) handleLogin(ctx context.Context, req *router.Request) (*router.Response, error) {
	creds := apiclient.Credentials{
		Email:    strings.TrimSpace(req.Form.Get("email")),
		Password: req.Form.Get("password"),
	}
	if creds.Email == "" || creds.Password == "" {
		return router.JSON(http.StatusBadRequest, loginResponse{Error: "email and password are required"})
	}

	token, err := a.api.Authenticate(ctx, creds)
	if err != nil {
		var status *apiclient.StatusError
		if errors.As(err, &status) {
			a.logger.InfoContext(ctx, "login rejected", "status", status.Status)
		} else {
			a.logger.WarnContext(ctx, "login failed", "error", err)
		}
		return router.JSON(http.StatusUnauthorized, loginResponse{Error: "invalid credentials"})
	}
	return router.JSON(http.StatusOK, loginResponse{Token: token})
}
