package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-mirgen/pkg/imports"
)

// NewResolveImportCommand creates the resolve-import command.
func NewResolveImportCommand(rootOpts *RootOptions) *cobra.Command {
	var strategy, cdnBase, version string

	cmd := &cobra.Command{
		Use:           "resolve-import <specifier>",
		Short:         "Show how a module specifier resolves under a strategy",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := rootOpts.importOptions()
			if strategy != "" {
				opts.Strategy = imports.Strategy(strategy)
			}
			if cdnBase != "" {
				opts.CDNBase = cdnBase
			}
			opts.Version = version

			res := imports.Resolve(args[0], opts)
			data := map[string]any{
				"importSource":      res.ImportSource,
				"packageName":       res.PackageName,
				"version":           res.Version,
				"subpath":           res.Subpath,
				"bare":              res.Bare,
				"declareDependency": res.DeclareDependency,
			}
			text := res.ImportSource + "\n"
			if res.DeclareDependency {
				text += fmt.Sprintf("declare: %s\n", res.PackageName)
			}
			return rootOpts.formatter(cmd).Success(data, text)
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "", "import strategy (workspace|package-registry|cdn)")
	cmd.Flags().StringVar(&cdnBase, "cdn-base", "", "CDN base URL")
	cmd.Flags().StringVar(&version, "version", "", "package version to pin")
	return cmd
}
