// main.go bootstraps composify: it builds the root Cobra command and
// executes with a signal-aware context.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/composify/internal/config"
	"github.com/example/composify/internal/logging"
	"github.com/example/composify/internal/secretstore"
	"github.com/example/composify/internal/stack"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := config.NewOptions()
	cmd := &cobra.Command{
		Use:           "composify",
		Short:         "Manage docker compose stacks and their secrets",
		Long:          "composify maintains a directory of compose stacks: it scaffolds new stacks, appends services to existing ones, and provisions database services with generated secrets wired through the root compose document.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newNewCommand(opts),
		newAppendCommand(opts),
		newCreateDBCommand(opts),
		newListCommand(opts),
	)
	return cmd
}

// buildManager resolves the layout and wires the collaborators every
// subcommand needs. The returned cleanup flushes the logger.
func buildManager(opts *config.Options) (*stack.Manager, func(), error) {
	if err := opts.Resolve(); err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(opts.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	store := secretstore.NewStore(opts.SecretsDir, logger)
	mgr := stack.NewManager(opts, store, logger)
	cleanup := func() { _ = logger.Sync() }
	return mgr, cleanup, nil
}
