// File: cmd/composify/new.go
// Brief: `composify new` command wiring.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/composify/internal/composefile"
	"github.com/example/composify/internal/config"
)

func newNewCommand(opts *config.Options) *cobra.Command {
	var svcFlags serviceFlags
	var yes bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "new STACK",
		Short: "Scaffold a new stack and register it in the root compose document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stackName := args[0]

			// Without an image the stack starts with an empty services
			// section; the service name defaults to the stack name.
			var svc *composefile.Service
			if strings.TrimSpace(svcFlags.image) != "" {
				var err error
				svc, err = svcFlags.service(stackName)
				if err != nil {
					return fmt.Errorf("new %s: %w", stackName, err)
				}
			}

			mgr, cleanup, err := buildManager(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			composePath := mgr.ComposePath(stackName)
			if svc != nil {
				snippet, err := composefile.ServiceSnippet(svc)
				if err != nil {
					return err
				}
				printPreview(cmd.OutOrStdout(), snippet, "", "", composePath)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "The stack %q will be created with an empty services section.\n", stackName)
			}
			if dryRun {
				return nil
			}
			ok, err := confirmProceed(cmd.InOrStdin(), cmd.OutOrStdout(),
				fmt.Sprintf("Create stack %q and update the root include list?", stackName), yes)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "No changes made.")
				return nil
			}

			result, err := mgr.New(cmd.Context(), stackName, svc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created stack: %s\n", result.ComposePath)
			if result.IncludeAdded {
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s to the root include list\n", result.IncludePath)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Include entry already present; root document unchanged")
			}
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
