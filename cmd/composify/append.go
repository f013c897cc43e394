// File: cmd/composify/append.go
// Brief: `composify append` command wiring.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/composify/internal/composefile"
	"github.com/example/composify/internal/config"
)

func newAppendCommand(opts *config.Options) *cobra.Command {
	var svcFlags serviceFlags
	var yes bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "append STACK [SERVICE IMAGE [FIELD=VALUE...]]",
		Short: "Append or update a service in an existing stack",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stackName := args[0]
			if len(args) >= 2 {
				svcFlags.name = args[1]
			}
			if len(args) >= 3 {
				svcFlags.image = args[2]
			}
			var extraEnv []composefile.EnvVar
			if len(args) > 3 {
				var err error
				extraEnv, err = svcFlags.applyFieldArgs(args[3:])
				if err != nil {
					return fmt.Errorf("append %s: %w", stackName, err)
				}
			}
			svc, err := svcFlags.service("")
			if err != nil {
				return fmt.Errorf("append %s: %w", stackName, err)
			}
			svc.Environment = append(svc.Environment, extraEnv...)

			mgr, cleanup, err := buildManager(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			composePath := mgr.ComposePath(stackName)
			snippet, err := composefile.ServiceSnippet(svc)
			if err != nil {
				return err
			}
			before, after := previewMerge(composePath, svc)
			printPreview(cmd.OutOrStdout(), snippet, before, after, composePath)
			if dryRun {
				return nil
			}
			ok, err := confirmProceed(cmd.InOrStdin(), cmd.OutOrStdout(),
				fmt.Sprintf("Append %q to %s?", svc.Name, composePath), yes)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "No changes made.")
				return nil
			}
			if err := mgr.Append(cmd.Context(), stackName, svc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Service %q written to %s\n", svc.Name, composePath)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	svcFlags.bind(cmd.Flags())
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the change without writing")
	return cmd
}

// previewMerge computes the before/after text of the target document for
// the diff preview. Best effort: a missing or unreadable document yields
// empty strings and the real operation reports the error.
func previewMerge(composePath string, svc *composefile.Service) (string, string) {
	doc, err := composefile.Load(composePath)
	if err != nil {
		return "", ""
	}
	raw, err := doc.Marshal()
	if err != nil {
		return "", ""
	}
	if err := doc.MergeService(svc.Name, svc.Node(), composefile.MergeUpsert); err != nil {
		return string(raw), ""
	}
	merged, err := doc.Marshal()
	if err != nil {
		return string(raw), ""
	}
	return string(raw), string(merged)
}
