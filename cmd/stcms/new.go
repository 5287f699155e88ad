package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/stcms/internal/scaffold"
)

func newCmd() *cobra.Command {
	var (
		template  string
		languages []string
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "new <directory>",
		Short: "Create a new site",
		Long: fmt.Sprintf(`Create a new site from a template.

Templates: %s

Examples:
  stcms new docs
  stcms new docs --languages=en,de,fr
  stcms new landing --template=minimal`, strings.Join(scaffold.List(), ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := scaffold.Get(template)
			if err != nil {
				return err
			}
			dir := args[0]
			files, err := tmpl.Create(dir, scaffold.Config{Languages: languages, Force: force})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			success(out, "Created %s from the %s template", dir, tmpl.Name)
			for _, f := range files {
				info(out, "%s", f)
			}
			fmt.Fprintln(out)
			info(out, "Next: cd %s && stcms serve --env=development", dir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", "multilingual", "Site template")
	cmd.Flags().StringSliceVarP(&languages, "languages", "l", []string{"en"}, "Site languages, default first")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Create into a non-empty directory")

	return cmd
}
