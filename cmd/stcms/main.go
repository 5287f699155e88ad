package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vango-dev/stcms/internal/config"
	serrors "github.com/vango-dev/stcms/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┌┬┐┌─┐┌┬┐┌─┐
  └─┐ │ │  │││└─┐
  └─┘ ┴ └─┘┴ ┴└─┘
`

func main() {
	if err := rootCmd().Execute(); err != nil {
		serrors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stcms",
		Short: "Serve a file-based multilingual website",
		Long: `stcms serves a website straight from a directory of templates.

Pages live under pages/<language>/ and are resolved from the URL:

  • /<lang>/<section>/<slug>  dynamic pages via <section>/[slug]
  • /<lang>/<path>            exact pages and directory indexes
  • anything else             the language's 404 page

Layouts, includes and Vite assets are shared across languages.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("dir", "C", ".", "Project directory")
	cmd.PersistentFlags().StringP("config", "c", "", "Config file (default <dir>/stcms.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")

	cmd.AddCommand(
		serveCmd(),
		newCmd(),
		languagesCmd(),
		routesCmd(),
		configCmd(),
		versionCmd(),
	)
	return cmd
}

// loadConfig reads and validates the configuration for cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	dir, _ := cmd.Flags().GetString("dir")
	file, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(config.Options{Dir: dir, File: file, Flags: cmd.Flags()})
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger returns a text logger at the configured level.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, color.CyanString(banner))
}

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", green("✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", yellow("⚠"), fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", red("✗"), fmt.Sprintf(format, args...))
}
