package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vango-dev/stcms"
	"github.com/vango-dev/stcms/internal/config"
)

func languagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the site languages",
		Long: `List the languages the site serves.

Languages come from the languages setting or, when it is empty, from the
subdirectories of the pages directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app, err := newApp(cmd, cfg)
			if err != nil {
				return err
			}
			printLanguages(cmd.OutOrStdout(), app)
			return nil
		},
	}
}

// newApp builds the App for inspection commands, logging warnings only.
func newApp(cmd *cobra.Command, cfg *config.Config) (*stcms.App, error) {
	logger := newLogger(cmd.ErrOrStderr(), cfg)
	return stcms.New(cfg.Site(logger))
}

func printLanguages(w io.Writer, app *stcms.App) {
	set := app.Languages()
	for _, code := range set.Codes() {
		if code == set.Default() {
			fmt.Fprintf(w, "%s %s (default)\n", green("●"), code)
			continue
		}
		fmt.Fprintf(w, "  %s\n", code)
	}
	for _, name := range set.Invalid() {
		warn(w, "ignored directory %q: not a language code", name)
	}
}
