package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-mirgen/pkg/mir"
)

// NewNormalizeCommand creates the normalize command.
func NewNormalizeCommand(rootOpts *RootOptions) *cobra.Command {
	var output string
	var validate bool

	cmd := &cobra.Command{
		Use:   "normalize <document>",
		Short: "Print the canonical form of a document",
		Long: `Load a MIR document (JSON or YAML, file or URL), resolve workspace
bundles, and print the canonical JSON document. Malformed content never
fails: it normalizes to the default document.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			doc, err := loadDocument(cmd.Context(), args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "load document", err)
			}

			var issues []mir.Issue
			if validate {
				issues = mir.Validate(doc)
			}

			payload, err := mir.Marshal(doc)
			if err != nil {
				return err
			}
			payload = append(payload, '\n')

			if output != "" {
				if err := os.WriteFile(output, payload, 0o644); err != nil {
					return WrapExitError(ExitCommandError, "write output", err)
				}
				rootOpts.logger().Info("document written", "path", output)
			}

			if len(issues) > 0 {
				return formatter.Failure(ExitFailure, fmt.Sprintf("%d validation issue(s)", len(issues)),
					map[string]any{"document": doc, "issues": issues}, formatIssues(issues))
			}
			if output != "" {
				return formatter.Success(map[string]any{"path": output}, fmt.Sprintf("Document written to %s\n", output))
			}
			return formatter.Success(doc, string(payload))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&validate, "validate", false, "report duplicate ids and unknown state references")
	return cmd
}

func formatIssues(issues []mir.Issue) string {
	var b strings.Builder
	for _, issue := range issues {
		fmt.Fprintf(&b, "%s %s (node %q at %s)\n", issue.Code, issue.Message, issue.NodeID, issue.Path)
	}
	return b.String()
}
