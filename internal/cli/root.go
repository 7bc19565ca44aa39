// Package cli implements the mirgen command tree.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-mirgen/pkg/libruntime"
)

// ValidFormats lists the accepted --format values.
var ValidFormats = []string{"text", "json"}

// RootOptions holds global flags and shared collaborators.
type RootOptions struct {
	Verbose    bool
	Format     string
	ConfigPath string

	Config Config
	Logger *slog.Logger

	// Fetcher replaces the HTTP manifest fetcher.
	Fetcher libruntime.Fetcher
	// Prompter and Interactive control the target prompt.
	Prompter    Prompter
	Interactive func() bool
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// NewRootCommand creates the mirgen root command.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOptions(&RootOptions{})
}

// NewRootCommandWithOptions creates the root command around opts, keeping
// any collaborators already set on it.
func NewRootCommandWithOptions(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirgen",
		Short: "Normalize MIR documents and generate component code",
		Long: `mirgen turns MIR UI documents into component source code.

It normalizes documents, loads external component libraries described by
manifest profiles, and emits React or static HTML output.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return WrapExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}
			cfg, err := LoadConfig(opts.ConfigPath, cmd.Flags().Changed("config"))
			if err != nil {
				return WrapExitError(ExitCommandError, "load config", err)
			}
			opts.Config = cfg

			level := slog.LevelWarn
			if opts.Verbose {
				level = slog.LevelDebug
			}
			opts.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", DefaultConfigFile, "config file")

	cmd.AddCommand(NewNormalizeCommand(opts))
	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewLibsCommand(opts))
	cmd.AddCommand(NewResolveImportCommand(opts))

	return cmd
}
