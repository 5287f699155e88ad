package stcms

import (
	"io/fs"
	"log/slog"
	"time"
)

// =============================================================================
// Configuration
// =============================================================================

// Config configures an App.
//
// Directories are resolved against FS when it is set, and against the OS
// filesystem otherwise.
type Config struct {
	// Env is "development" or "production" (default).
	Env string

	// APIBaseURL is the base URL of the profile and auth service.
	APIBaseURL string

	// ViteBaseURL is the Vite dev server, used in development only.
	ViteBaseURL string

	// DefaultLanguage is used when the first path segment is not a
	// language. Replaced by the first language when unavailable.
	DefaultLanguage string

	// Languages lists the supported languages. When empty they are
	// discovered from the sub-directories of PagesDir.
	Languages []string

	// Routing selects the unmatched-route strategy.
	Routing Routing

	// RedirectRoot redirects "/" to the visitor's preferred language.
	RedirectRoot bool

	// PagesDir holds one directory per language.
	PagesDir string

	// TemplatePaths are searched in order for pages, layouts and includes.
	// Defaults to PagesDir, "templates" and "components".
	TemplatePaths []string

	// TemplateExt is the template file extension (default ".html").
	TemplateExt string

	// CacheTemplates keeps parsed templates until the cache is reset.
	CacheTemplates bool

	// LiveReload injects the live reload client in development.
	LiveReload bool

	// Assets configures bundle references.
	Assets AssetsConfig

	// Static configures static file serving.
	Static StaticConfig

	// ProfileTimeout bounds the profile service call (default 5s).
	ProfileTimeout time.Duration

	// FS, when set, is the root every directory and the manifest are read
	// from.
	FS fs.FS

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Routing selects how unmatched requests are resolved.
type Routing string

const (
	// RoutingMultilingual serves one page tree per language (default).
	RoutingMultilingual Routing = "multilingual"

	// RoutingSingle serves a single unprefixed page tree.
	RoutingSingle Routing = "single"
)

// AssetsConfig configures the asset reference resolver.
type AssetsConfig struct {
	// Entrypoint is the bundle entry emitted by vite_assets.
	Entrypoint string

	// Manifest is the path of the Vite manifest, read in production.
	Manifest string

	// Prefix is the public URL prefix of built files.
	Prefix string
}

// StaticConfig configures static file serving.
type StaticConfig struct {
	// Dir is the directory containing static files.
	// If empty, static file serving is disabled.
	Dir string

	// Prefix is the URL prefix for static files (default: "/").
	// For example, "/static" serves files at /static/css/app.css.
	Prefix string

	// CacheControl sets the caching strategy for static files.
	CacheControl CacheControlStrategy

	// Headers are custom headers added to all static file responses.
	Headers map[string]string
}

// CacheControlStrategy defines how static files are cached.
type CacheControlStrategy int

const (
	// CacheControlNone disables caching (development mode).
	CacheControlNone CacheControlStrategy = iota

	// CacheControlProduction enables aggressive caching for fingerprinted
	// files and short caching for others.
	CacheControlProduction
)

// =============================================================================
// Defaults
// =============================================================================

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() Config {
	return Config{
		Env:             "production",
		APIBaseURL:      "http://localhost:80",
		ViteBaseURL:     "http://localhost:5173",
		DefaultLanguage: "en",
		Routing:         RoutingMultilingual,
		PagesDir:        "pages",
		TemplatePaths:   []string{"pages", "templates", "components"},
		TemplateExt:     ".html",
		CacheTemplates:  true,
		Assets:          DefaultAssetsConfig(),
		Static:          DefaultStaticConfig(),
		ProfileTimeout:  5 * time.Second,
	}
}

// DefaultAssetsConfig returns the asset defaults.
func DefaultAssetsConfig() AssetsConfig {
	return AssetsConfig{
		Entrypoint: "assets/js/app.jsx",
		Manifest:   "public/assets/build/manifest.json",
		Prefix:     "/assets/build/",
	}
}

// DefaultStaticConfig returns the static file defaults.
func DefaultStaticConfig() StaticConfig {
	return StaticConfig{
		Dir:          "public",
		Prefix:       "/",
		CacheControl: CacheControlProduction,
	}
}
