// File: cmd/composify/create_db.go
// Brief: `composify create-db` command wiring.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/composify/internal/config"
	"github.com/example/composify/internal/stack"
)

func newCreateDBCommand(opts *config.Options) *cobra.Command {
	var engine string
	var serviceName string
	var image string
	var yes bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "create-db STACK",
		Short: "Add a database service with a generated password secret",
		Long: "create-db adds a database service to an existing stack. It generates a password, " +
			"stores it in the secrets directory, references it from the service, and declares it " +
			"in the root compose document's secrets section. Re-running with the same inputs is a no-op.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stackName := args[0]
			mgr, cleanup, err := buildManager(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			if dryRun {
				name := strings.TrimSpace(serviceName)
				if name == "" {
					name = "db"
				}
				secretName := fmt.Sprintf("%s_%s_password", stackName, name)
				fmt.Fprintf(cmd.OutOrStdout(), "Would add service %q to %s\n", name, mgr.ComposePath(stackName))
				fmt.Fprintf(cmd.OutOrStdout(), "Would store secret %s at %s\n", secretName, mgr.Store().PathFor(secretName))
				fmt.Fprintf(cmd.OutOrStdout(), "Would declare %s in the root compose document\n", secretName)
				return nil
			}

			ok, err := confirmProceed(cmd.InOrStdin(), cmd.OutOrStdout(),
				fmt.Sprintf("Add a %s service to stack %q and provision its secret?", engineOrDefault(engine), stackName), yes)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "No changes made.")
				return nil
			}

			result, err := mgr.CreateDB(cmd.Context(), stackName, stack.CreateDBOptions{
				Engine:      stack.DBEngine(strings.ToLower(strings.TrimSpace(engine))),
				ServiceName: serviceName,
				Image:       image,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Service %q written to %s\n", result.ServiceName, result.ComposePath)
			if result.SecretCreated {
				fmt.Fprintf(cmd.OutOrStdout(), "Secret %s stored at %s\n", result.SecretName, result.SecretPath)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Secret %s already stored; reused\n", result.SecretName)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVar(&engine, "engine", string(stack.EnginePostgres), "Database engine: "+strings.Join(stack.Engines(), ", "))
	cmd.Flags().StringVar(&serviceName, "service", "db", "Database service name")
	cmd.Flags().StringVar(&image, "image", "", "Override the engine's default image")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the change without writing")
	return cmd
}

func engineOrDefault(engine string) string {
	engine = strings.TrimSpace(engine)
	if engine == "" {
		return string(stack.EnginePostgres)
	}
	return engine
}
