package config

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/stcms"
	serrors "github.com/vango-dev/stcms/internal/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, "http://localhost:80", cfg.APIBaseURL)
	assert.Equal(t, "http://localhost:5173", cfg.ViteBaseURL)
	assert.Equal(t, "en", cfg.DefaultLanguage)
	assert.Empty(t, cfg.Languages)
	assert.Equal(t, "multilingual", cfg.Routing)
	assert.Equal(t, []string{"pages", "templates", "components"}, cfg.TemplatePaths)
	assert.Equal(t, ".html", cfg.TemplateExt)
	assert.Equal(t, "assets/js/app.jsx", cfg.Entrypoint)
	assert.Equal(t, "public/assets/build/manifest.json", cfg.Manifest)
	assert.Equal(t, 5*time.Second, cfg.ProfileTimeout)
	assert.Equal(t, DefaultHost, cfg.Server.Host)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.True(t, cfg.Server.Compression)
	assert.NoError(t, cfg.Validate())
}

func TestLoadWithoutFiles(t *testing.T) {
	cfg, err := Load(Options{Dir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.AppEnv)
	assert.Empty(t, cfg.File())
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ConfigFileName, `
app_env: development
api_base_url: https://api.example.com
languages: [en, de]
profile_timeout: 2s
server:
  port: 9000
`)

	cfg, err := Load(Options{Dir: dir})
	require.NoError(t, err)

	assert.True(t, cfg.Development())
	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	assert.Equal(t, []string{"en", "de"}, cfg.Languages)
	assert.Equal(t, 2*time.Second, cfg.ProfileTimeout)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, DefaultHost, cfg.Server.Host)
	assert.Equal(t, path, cfg.File())
}

func TestLoadExplicitFileMissing(t *testing.T) {
	_, err := Load(Options{File: filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
	assert.Equal(t, serrors.CodeConfigParse, serrors.Code(err))
}

func TestLoadParseErrorHasLine(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConfigFileName, "app_env: development\nserver: [unclosed\n")

	_, err := Load(Options{Dir: dir})
	require.Error(t, err)

	se := serrors.FromError(err, "")
	assert.Equal(t, serrors.CodeConfigParse, se.Code)
	require.NotNil(t, se.Location)
	assert.Equal(t, filepath.Join(dir, ConfigFileName), se.Location.File)
}

func TestPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConfigFileName, `
app_env: production
api_base_url: http://yaml.example.com
vite_base_url: http://yaml-vite.example.com
server:
  port: 7000
`)
	writeFile(t, dir, EnvFileName, `
API_BASE_URL=http://dotenv.example.com
VITE_BASE_URL=http://dotenv-vite.example.com
SERVER_PORT=7100
`)
	t.Setenv("VITE_BASE_URL", "http://env-vite.example.com")

	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.Int("port", DefaultPort, "")
	require.NoError(t, flags.Parse([]string{"--port", "7200"}))

	cfg, err := Load(Options{Dir: dir, Flags: flags})
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.AppEnv, "yaml over default")
	assert.Equal(t, "http://dotenv.example.com", cfg.APIBaseURL, ".env over yaml")
	assert.Equal(t, "http://env-vite.example.com", cfg.ViteBaseURL, "environment over .env")
	assert.Equal(t, 7200, cfg.Server.Port, "flag over everything")
}

func TestUnchangedFlagKeepsLowerLayers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConfigFileName, "server:\n  port: 7000\n")

	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.Int("port", DefaultPort, "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load(Options{Dir: dir, Flags: flags})
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestEnvironmentList(t *testing.T) {
	t.Setenv("LANGUAGES", "en, de,fr")

	cfg, err := Load(Options{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "de", "fr"}, cfg.Languages)
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "APP_ENV", EnvName("app_env"))
	assert.Equal(t, "SERVER_PORT", EnvName("server.port"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		code   string
	}{
		{"env", func(c *Config) { c.AppEnv = "staging" }, serrors.CodeInvalidEnv},
		{"port low", func(c *Config) { c.Server.Port = 0 }, serrors.CodeInvalidPort},
		{"port high", func(c *Config) { c.Server.Port = 70000 }, serrors.CodeInvalidPort},
		{"routing", func(c *Config) { c.Routing = "subdomain" }, serrors.CodeInvalidRouting},
		{"api url", func(c *Config) { c.APIBaseURL = "localhost:80" }, serrors.CodeInvalidURL},
		{"vite url", func(c *Config) { c.ViteBaseURL = "ftp://vite" }, serrors.CodeInvalidURL},
		{"default language", func(c *Config) { c.DefaultLanguage = "" }, serrors.CodeInvalidLanguage},
		{"language path", func(c *Config) { c.Languages = []string{"en", "../x"} }, serrors.CodeInvalidLanguage},
		{"timeout", func(c *Config) { c.ProfileTimeout = 0 }, serrors.CodeInvalidTimeout},
		{"template paths", func(c *Config) { c.TemplatePaths = nil }, serrors.CodeNoTemplatePaths},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.code, serrors.Code(err))
		})
	}
}

func TestValidateCollectsAll(t *testing.T) {
	cfg := Default()
	cfg.AppEnv = "staging"
	cfg.Server.Port = -1
	cfg.Routing = "other"

	err := cfg.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 3)
	assert.Contains(t, err.Error(), "3 configuration errors")
	assert.Contains(t, err.Error(), serrors.CodeInvalidEnv)
	assert.Contains(t, err.Error(), serrors.CodeInvalidPort)
	assert.Contains(t, err.Error(), serrors.CodeInvalidRouting)
}

func TestAddress(t *testing.T) {
	cfg := Default()
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8080
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
}

func TestSlogLevel(t *testing.T) {
	cfg := Default()
	for level, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"ERROR":   slog.LevelError,
		"verbose": slog.LevelInfo,
	} {
		cfg.LogLevel = level
		assert.Equal(t, want, cfg.SlogLevel(), level)
	}
}

func TestSite(t *testing.T) {
	cfg := Default()
	cfg.Languages = []string{"en", "de"}
	cfg.Routing = "single"

	site := cfg.Site(nil)
	assert.Equal(t, "production", site.Env)
	assert.Equal(t, []string{"en", "de"}, site.Languages)
	assert.Equal(t, stcms.RoutingSingle, site.Routing)
	assert.True(t, site.CacheTemplates)
	assert.Equal(t, "public", site.Static.Dir)
	assert.Equal(t, stcms.CacheControlProduction, site.Static.CacheControl)
	assert.Equal(t, "/assets/build/", site.Assets.Prefix)
	assert.Nil(t, site.FS)

	cfg.AppEnv = "development"
	site = cfg.Site(nil)
	assert.False(t, site.CacheTemplates)
	assert.Equal(t, stcms.CacheControlNone, site.Static.CacheControl)
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	cfg := Default()
	cfg.Languages = []string{"en", "fr"}
	require.NoError(t, cfg.Write(path, false))

	loaded, err := Load(Options{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "fr"}, loaded.Languages)
	assert.Equal(t, cfg.Server, loaded.Server)
	assert.Equal(t, cfg.ProfileTimeout, loaded.ProfileTimeout)

	err = cfg.Write(path, false)
	require.Error(t, err)
	assert.Equal(t, serrors.CodeConfigExists, serrors.Code(err))

	assert.NoError(t, cfg.Write(path, true))
}

func TestProjectDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "marker.txt", "ok")

	cfg, err := Load(Options{Dir: dir})
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.Dir())
	assert.Equal(t, filepath.Join(dir, "pages"), cfg.Path("pages"))
	assert.Equal(t, "/abs/pages", cfg.Path("/abs/pages"))

	site := cfg.Site(nil)
	require.NotNil(t, site.FS)
	data, err := fs.ReadFile(site.FS, "marker.txt")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
}
