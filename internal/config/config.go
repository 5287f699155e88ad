package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/stcms"
	serrors "github.com/vango-dev/stcms/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "stcms.yaml"

	// EnvFileName is the dotenv file read next to the configuration file.
	EnvFileName = ".env"

	// DefaultPort is the default server port.
	DefaultPort = 8000

	// DefaultHost is the default server host.
	DefaultHost = "localhost"
)

// Config is the complete site configuration.
type Config struct {
	AppEnv          string        `mapstructure:"app_env" yaml:"app_env"`
	APIBaseURL      string        `mapstructure:"api_base_url" yaml:"api_base_url"`
	ViteBaseURL     string        `mapstructure:"vite_base_url" yaml:"vite_base_url"`
	DefaultLanguage string        `mapstructure:"default_language" yaml:"default_language"`
	Languages       []string      `mapstructure:"languages" yaml:"languages,omitempty"`
	Routing         string        `mapstructure:"routing" yaml:"routing"`
	RedirectRoot    bool          `mapstructure:"redirect_root" yaml:"redirect_root"`
	PagesDir        string        `mapstructure:"pages_dir" yaml:"pages_dir"`
	TemplatePaths   []string      `mapstructure:"template_paths" yaml:"template_paths"`
	TemplateExt     string        `mapstructure:"template_ext" yaml:"template_ext"`
	CacheTemplates  bool          `mapstructure:"cache_templates" yaml:"cache_templates"`
	LiveReload      bool          `mapstructure:"live_reload" yaml:"live_reload"`
	Entrypoint      string        `mapstructure:"entrypoint" yaml:"entrypoint"`
	Manifest        string        `mapstructure:"manifest" yaml:"manifest"`
	AssetPrefix     string        `mapstructure:"asset_prefix" yaml:"asset_prefix"`
	PublicDir       string        `mapstructure:"public_dir" yaml:"public_dir"`
	ProfileTimeout  time.Duration `mapstructure:"profile_timeout" yaml:"profile_timeout"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level"`
	Server          ServerConfig  `mapstructure:"server" yaml:"server"`

	// configFile is the file the configuration was read from, if any.
	configFile string

	// dir is the project directory relative paths resolve against.
	dir string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host        string `mapstructure:"host" yaml:"host"`
	Port        int    `mapstructure:"port" yaml:"port"`
	Compression bool   `mapstructure:"compression" yaml:"compression"`
}

// defaults lists every key with its default value. Keys not listed here are
// not read from the environment.
var defaults = map[string]any{
	"app_env":            "production",
	"api_base_url":       "http://localhost:80",
	"vite_base_url":      "http://localhost:5173",
	"default_language":   "en",
	"languages":          []string{},
	"routing":            string(stcms.RoutingMultilingual),
	"redirect_root":      false,
	"pages_dir":          "pages",
	"template_paths":     []string{"pages", "templates", "components"},
	"template_ext":       ".html",
	"cache_templates":    true,
	"live_reload":        true,
	"entrypoint":         "assets/js/app.jsx",
	"manifest":           "public/assets/build/manifest.json",
	"asset_prefix":       "/assets/build/",
	"public_dir":         "public",
	"profile_timeout":    "5s",
	"log_level":          "info",
	"server.host":        DefaultHost,
	"server.port":        DefaultPort,
	"server.compression": true,
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"env":       "app_env",
	"host":      "server.host",
	"port":      "server.port",
	"log-level": "log_level",
	"pages":     "pages_dir",
}

// EnvName returns the environment variable for a configuration key, e.g.
// APP_ENV for app_env and SERVER_PORT for server.port.
func EnvName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Options controls where configuration is read from.
type Options struct {
	// Dir holds stcms.yaml and .env. Defaults to the working directory.
	Dir string

	// File overrides the configuration file path.
	File string

	// Flags are bound by name, see flagKeys. May be nil.
	Flags *pflag.FlagSet
}

// newViper returns a viper instance with defaults and environment binding.
func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration from, lowest to highest precedence: defaults,
// stcms.yaml, .env, the process environment and flags.
func Load(opts Options) (*Config, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	v := newViper()

	file := opts.File
	if file == "" {
		file = filepath.Join(dir, ConfigFileName)
	}
	v.SetConfigFile(file)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) || opts.File != "" {
			return nil, parseError(file, err)
		}
		file = ""
	}

	envFile := filepath.Join(dir, EnvFileName)
	if err := mergeDotenv(v, envFile); err != nil {
		return nil, parseError(envFile, err)
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, serrors.New(serrors.CodeConfigParse).Wrap(err)
	}
	// Comma separated lists from the environment arrive as one element.
	cfg.Languages = splitList(cfg.Languages)
	cfg.TemplatePaths = splitList(cfg.TemplatePaths)
	cfg.configFile = file
	cfg.dir = dir
	return &cfg, nil
}

// mergeDotenv merges the known keys of a dotenv file into the config layer,
// so they override stcms.yaml but not the process environment.
func mergeDotenv(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	env := viper.New()
	env.SetConfigFile(path)
	env.SetConfigType("env")
	if err := env.ReadInConfig(); err != nil {
		return err
	}

	merged := map[string]any{}
	for key := range defaults {
		name := strings.ToLower(EnvName(key))
		if !env.IsSet(name) {
			continue
		}
		setNested(merged, strings.Split(key, "."), env.Get(name))
	}
	if len(merged) == 0 {
		return nil
	}
	return v.MergeConfigMap(merged)
}

func setNested(m map[string]any, path []string, value any) {
	for _, p := range path[:len(path)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

// parseError turns a read failure into an E120 error pointing at the line,
// when the parser reported one.
func parseError(file string, err error) error {
	se := serrors.New(serrors.CodeConfigParse).Wrap(err)
	line := 0
	if m := yamlLineRe.FindStringSubmatch(err.Error()); m != nil {
		line, _ = strconv.Atoi(m[1])
	}
	return se.WithLocation(file, line, 0)
}

// Default returns the default configuration, ignoring files and the
// environment.
func Default() *Config {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(err)
	}
	cfg.Languages = nil
	cfg.dir = "."
	return &cfg
}

// File returns the configuration file that was read, or "".
func (c *Config) File() string {
	return c.configFile
}

// Dir returns the project directory.
func (c *Config) Dir() string {
	return c.dir
}

// Path resolves a project relative path.
func (c *Config) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Development reports whether app_env is development.
func (c *Config) Development() bool {
	return c.AppEnv == "development"
}

// Address returns the server listen address.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// SlogLevel returns log_level as a slog.Level. Unknown levels are Info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.AppEnv != "development" && c.AppEnv != "production" {
		result = multierror.Append(result, c.located(serrors.New(serrors.CodeInvalidEnv).
			WithDetail(fmt.Sprintf("app_env is %q; it must be development or production.", c.AppEnv))))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		result = multierror.Append(result, c.located(serrors.New(serrors.CodeInvalidPort).
			WithDetail(fmt.Sprintf("server.port is %d; it must be between 1 and 65535.", c.Server.Port))))
	}
	switch stcms.Routing(c.Routing) {
	case stcms.RoutingMultilingual, stcms.RoutingSingle:
	default:
		result = multierror.Append(result, c.located(serrors.New(serrors.CodeInvalidRouting).
			WithDetail(fmt.Sprintf("routing is %q; it must be multilingual or single.", c.Routing))))
	}
	for key, raw := range map[string]string{"api_base_url": c.APIBaseURL, "vite_base_url": c.ViteBaseURL} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			result = multierror.Append(result, c.located(serrors.New(serrors.CodeInvalidURL).
				WithDetail(fmt.Sprintf("%s is %q; it must be an absolute http or https URL.", key, raw))))
		}
	}
	for _, code := range append([]string{c.DefaultLanguage}, c.Languages...) {
		if code == "" || strings.ContainsAny(code, `/\ `) || code == "." || code == ".." {
			result = multierror.Append(result, c.located(serrors.New(serrors.CodeInvalidLanguage).
				WithDetail(fmt.Sprintf("%q is not a usable language code.", code))))
		}
	}
	if c.ProfileTimeout <= 0 {
		result = multierror.Append(result, c.located(serrors.New(serrors.CodeInvalidTimeout)))
	}
	if len(c.TemplatePaths) == 0 {
		result = multierror.Append(result, c.located(serrors.New(serrors.CodeNoTemplatePaths)))
	}

	if result == nil {
		return nil
	}
	result.ErrorFormat = formatErrors
	return result.ErrorOrNil()
}

func (c *Config) located(se *serrors.StructuredError) *serrors.StructuredError {
	if c.configFile != "" {
		se.Location = &serrors.Location{File: c.configFile}
	}
	return se
}

func formatErrors(errs []error) string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	lines := make([]string, len(errs))
	for i, err := range errs {
		lines[i] = "  * " + err.Error()
	}
	return fmt.Sprintf("%d configuration errors:\n%s", len(errs), strings.Join(lines, "\n"))
}

// Site converts the configuration into the App configuration.
func (c *Config) Site(logger *slog.Logger) stcms.Config {
	cacheControl := stcms.CacheControlProduction
	if c.Development() {
		cacheControl = stcms.CacheControlNone
	}
	var fsys fs.FS
	if c.dir != "" && c.dir != "." {
		fsys = os.DirFS(c.dir)
	}
	return stcms.Config{
		Env:             c.AppEnv,
		APIBaseURL:      c.APIBaseURL,
		ViteBaseURL:     c.ViteBaseURL,
		DefaultLanguage: c.DefaultLanguage,
		Languages:       c.Languages,
		Routing:         stcms.Routing(c.Routing),
		RedirectRoot:    c.RedirectRoot,
		PagesDir:        c.PagesDir,
		TemplatePaths:   c.TemplatePaths,
		TemplateExt:     c.TemplateExt,
		CacheTemplates:  c.CacheTemplates && !c.Development(),
		LiveReload:      c.LiveReload,
		Assets: stcms.AssetsConfig{
			Entrypoint: c.Entrypoint,
			Manifest:   c.Manifest,
			Prefix:     c.AssetPrefix,
		},
		Static: stcms.StaticConfig{
			Dir:          c.PublicDir,
			Prefix:       "/",
			CacheControl: cacheControl,
		},
		ProfileTimeout: c.ProfileTimeout,
		FS:             fsys,
		Logger:         logger,
	}
}

// Marshal renders the configuration as stcms.yaml content.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Write saves the configuration to path. An existing file is only replaced
// when force is set.
func (c *Config) Write(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return serrors.New(serrors.CodeConfigExists).WithLocation(path, 0, 0)
	}
	data, err := c.Marshal()
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
