package main

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/stcms"
	"github.com/vango-dev/stcms/internal/config"
	"github.com/vango-dev/stcms/internal/dev"
	serrors "github.com/vango-dev/stcms/internal/errors"
	"github.com/vango-dev/stcms/pkg/middleware"
)

// MetricsPath serves Prometheus metrics.
const MetricsPath = "/metrics"

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long: `Start the web server for the site in the project directory.

In development (APP_ENV=development) templates are re-read on every
change and connected browsers reload automatically.

Examples:
  stcms serve
  stcms serve --port=8080
  stcms serve --env=development --host=0.0.0.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, cfg)
		},
	}

	cmd.Flags().IntP("port", "p", config.DefaultPort, "Port to listen on")
	cmd.Flags().StringP("host", "H", config.DefaultHost, "Host to bind to")
	cmd.Flags().StringP("env", "e", "", "Environment: development or production")
	cmd.Flags().String("pages", "", "Pages directory")

	return cmd
}

// server is a site with its HTTP stack.
type server struct {
	app     *stcms.App
	handler http.Handler
	reload  *dev.ReloadServer
	cfg     *config.Config
	logger  *slog.Logger
}

// newServer builds the App and the middleware stack around it.
func newServer(cfg *config.Config, logger *slog.Logger) (*server, error) {
	app, err := stcms.New(cfg.Site(logger))
	if err != nil {
		return nil, serrors.FromError(err, serrors.CodePagesUnreadable)
	}

	s := &server{app: app, cfg: cfg, logger: logger}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.AccessLog(logger))
	r.Use(middleware.OpenTelemetry(middleware.WithRequestFilter(func(r *http.Request) bool {
		return r.URL.Path != MetricsPath
	})))
	r.Use(middleware.Prometheus())

	r.Handle(MetricsPath, promhttp.Handler())
	if app.Development() && cfg.LiveReload {
		s.reload = dev.NewReloadServer(logger)
		r.Handle(dev.ReloadPath, s.reload)
	}
	var site http.Handler = app
	if cfg.Server.Compression {
		site = compress(app, logger)
	}
	r.Handle("/*", site)

	s.handler = r
	return s, nil
}

// compress wraps h with gzip compression.
func compress(h http.Handler, logger *slog.Logger) http.Handler {
	wrapper, err := gzhttp.NewWrapper(
		gzhttp.MinSize(gzhttp.DefaultMinSize),
		gzhttp.CompressionLevel(gzip.DefaultCompression),
	)
	if err != nil {
		logger.Warn("compression disabled", "error", err)
		return h
	}
	return wrapper(h)
}

// watch reloads templates and browsers on file changes until ctx is done.
func (s *server) watch(ctx context.Context) {
	if s.reload == nil {
		return
	}
	paths := make([]string, 0, len(s.cfg.TemplatePaths)+1)
	for _, p := range s.cfg.TemplatePaths {
		paths = append(paths, s.cfg.Path(p))
	}
	paths = append(paths, s.cfg.Path(s.cfg.PublicDir))

	w := dev.NewWatcher(dev.WatcherConfig{
		Paths:       paths,
		Ignore:      dev.DefaultIgnore,
		TemplateExt: s.cfg.TemplateExt,
		Logger:      s.logger,
	})
	w.OnChange(dev.NewReloader(s.app.Engine(), s.reload, s.logger).Apply)

	go func() {
		if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("file watcher stopped", "error", err)
		}
	}()
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()
	logger := newLogger(cmd.ErrOrStderr(), cfg)

	s, err := newServer(cfg, logger)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Address())
	if err != nil {
		return serrors.New(serrors.CodeServerStart).
			WithDetail(fmt.Sprintf("Could not listen on %s.", cfg.Address())).
			Wrap(err)
	}

	printBanner(out)
	success(out, "Serving %s on http://%s", cfg.AppEnv, ln.Addr())
	info(out, "Languages: %s (default %s)", s.app.Languages(), s.app.Languages().Default())
	if s.app.Manifest() == nil && !s.app.Development() {
		warn(out, "%s", serrors.New(serrors.CodeManifestInvalid).
			WithLocation(cfg.Path(cfg.Manifest), 0, 0).
			FormatCompact())
	}
	if s.reload != nil {
		info(out, "Live reload enabled")
	}
	fmt.Fprintln(out)

	s.watch(ctx)

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return serrors.New(serrors.CodeServerStart).Wrap(err)
	case <-ctx.Done():
	}

	info(out, "Shutting down...")
	if s.reload != nil {
		s.reload.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errorMsg(out, "shutdown: %v", err)
		return err
	}
	success(out, "Stopped")
	return nil
}
