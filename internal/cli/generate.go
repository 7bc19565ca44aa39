package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-mirgen/pkg/codegen"
	"github.com/goliatone/go-mirgen/pkg/libruntime"
)

// DefaultTarget is used when neither a flag, the config nor a prompt picks
// a backend.
const DefaultTarget = "react"

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		target   string
		output   string
		name     string
		strategy string
		cdnBase  string
	)

	cmd := &cobra.Command{
		Use:   "generate <document>",
		Short: "Generate component source from a document",
		Long: `Load a document, ensure every external library it references, and emit
source for the chosen backend target. Unresolved types are emitted as
placeholders; library diagnostics are printed to stderr.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strategy != "" {
				rootOpts.Config.ImportStrategy = strategy
			}
			if cdnBase != "" {
				rootOpts.Config.CDNBase = cdnBase
			}
			if name != "" {
				rootOpts.Config.ModuleName = name
			}

			ctx := cmd.Context()
			formatter := rootOpts.formatter(cmd)
			doc, err := loadDocument(ctx, args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "load document", err)
			}

			env, err := newEnvironment(rootOpts)
			if err != nil {
				return WrapExitError(ExitCommandError, "configure", err)
			}
			defer env.Close()

			target, err = chooseTarget(rootOpts, target, env.gen.Targets())
			if err != nil {
				return WrapExitError(ExitCommandError, "choose target", err)
			}

			diags := env.runtime.EnsureMany(ctx, referencedLibraries(doc))
			if text := formatDiagnostics(diags); text != "" {
				fmt.Fprint(cmd.ErrOrStderr(), text)
			}

			code, err := env.gen.Generate(ctx, doc, target)
			if err != nil {
				exit := ExitFailure
				if errors.Is(err, codegen.ErrUnknownBackend) {
					exit = ExitCommandError
				}
				return formatter.Failure(exit, err.Error(), map[string]any{"target": target}, "")
			}

			if output != "" {
				if err := os.WriteFile(output, code, 0o644); err != nil {
					return WrapExitError(ExitCommandError, "write output", err)
				}
				return formatter.Success(generateResult(target, output, diags, nil),
					fmt.Sprintf("%s output written to %s\n", target, output))
			}
			return formatter.Success(generateResult(target, "", diags, code), string(code))
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "backend target (react|html)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&name, "name", "", "generated module name")
	cmd.Flags().StringVar(&strategy, "strategy", "", "import strategy (workspace|package-registry|cdn)")
	cmd.Flags().StringVar(&cdnBase, "cdn-base", "", "CDN base URL for the cdn strategy")
	return cmd
}

func chooseTarget(opts *RootOptions, flag string, targets []string) (string, error) {
	if target := strings.TrimSpace(flag); target != "" {
		return target, nil
	}
	fallback := opts.Config.DefaultTarget
	if fallback == "" {
		fallback = DefaultTarget
	}

	interactive := opts.Interactive
	if interactive == nil {
		interactive = stdinIsTerminal
	}
	if !interactive() || opts.Format == "json" {
		return fallback, nil
	}
	prompter := opts.Prompter
	if prompter == nil {
		prompter = surveyPrompter{}
	}
	return prompter.Select("Target backend", targets, fallback)
}

func generateResult(target, path string, diags map[string][]libruntime.Diagnostic, code []byte) map[string]any {
	out := map[string]any{"target": target}
	if path != "" {
		out["path"] = path
	}
	if code != nil {
		out["code"] = string(code)
	}
	ids := make([]string, 0, len(diags))
	for id := range diags {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var flat []libruntime.Diagnostic
	for _, id := range ids {
		flat = append(flat, diags[id]...)
	}
	if len(flat) > 0 {
		out["diagnostics"] = flat
	}
	return out
}
