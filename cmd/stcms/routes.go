package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/stcms"
)

func routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List explicit routes",
		Long: `List the routes registered ahead of content resolution.

Requests that match none of them are resolved against the pages directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app, err := newApp(cmd, cfg)
			if err != nil {
				return err
			}
			printRoutes(cmd.OutOrStdout(), app, cfg.Routing)
			return nil
		},
	}
}

func printRoutes(w io.Writer, app *stcms.App, routing string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tPATTERN\tKIND")
	for _, route := range app.Router().Routes() {
		kind := "exact"
		if route.Parameterized {
			kind = "pattern"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", route.Method, route.Pattern, kind)
	}
	fmt.Fprintf(tw, "*\t/*\t%s resolver\n", routing)
	tw.Flush()
}
