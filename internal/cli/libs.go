package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-mirgen/pkg/libruntime"
)

// NewLibsCommand creates the libs command group.
func NewLibsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "libs",
		Short: "Inspect and load external component libraries",
	}
	cmd.AddCommand(newLibsListCommand(rootOpts))
	cmd.AddCommand(newLibsEnsureCommand(rootOpts))
	return cmd
}

type libraryInfo struct {
	LibraryID   string                  `json:"libraryId"`
	Status      libruntime.Status       `json:"status"`
	Components  []string                `json:"components,omitempty"`
	Groups      []libruntime.Group      `json:"groups,omitempty"`
	Diagnostics []libruntime.Diagnostic `json:"diagnostics,omitempty"`
}

func newLibsListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List libraries declared by the profile directory",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(rootOpts)
			if err != nil {
				return WrapExitError(ExitCommandError, "configure", err)
			}
			defer env.Close()

			var infos []libraryInfo
			var b strings.Builder
			for _, id := range env.runtime.Libraries() {
				info := libraryInfo{LibraryID: id, Status: env.runtime.State(id).Status, Groups: env.runtime.Groups(id)}
				infos = append(infos, info)
				fmt.Fprintf(&b, "%s\t%s\t%d group(s)\n", id, info.Status, len(info.Groups))
			}
			return rootOpts.formatter(cmd).Success(infos, b.String())
		},
	}
}

func newLibsEnsureCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "ensure <library>...",
		Short:         "Load libraries and report their components",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(rootOpts)
			if err != nil {
				return WrapExitError(ExitCommandError, "configure", err)
			}
			defer env.Close()

			diags := env.runtime.EnsureMany(cmd.Context(), args)

			var infos []libraryInfo
			var b strings.Builder
			failed := false
			for _, id := range uniqueSorted(args) {
				state := env.runtime.State(id)
				info := libraryInfo{LibraryID: id, Status: state.Status, Diagnostics: diags[id]}
				for _, component := range env.runtime.Components(id) {
					info.Components = append(info.Components, component.ItemID)
				}
				if state.Status != libruntime.StatusSuccess {
					failed = true
				}
				infos = append(infos, info)
				fmt.Fprintf(&b, "%s\t%s\t%s\n", id, state.Status, strings.Join(info.Components, ","))
			}
			b.WriteString(formatDiagnostics(diags))

			formatter := rootOpts.formatter(cmd)
			if failed {
				return formatter.Failure(ExitFailure, "one or more libraries failed to load", infos, b.String())
			}
			return formatter.Success(infos, b.String())
		},
	}
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
