// File: cmd/composify/list.go
// Brief: `composify list` command: enumerate stacks and their services.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/compose-spec/compose-go/v2/loader"
	composetypes "github.com/compose-spec/compose-go/v2/types"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/composify/internal/config"
)

func newListCommand(opts *config.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stacks and the services each compose document defines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, cleanup, err := buildManager(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			stacks, err := mgr.List()
			if err != nil {
				return err
			}
			if len(stacks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No stacks found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STACK\tSERVICE\tIMAGE")
			warn := color.New(color.FgYellow)
			for _, name := range stacks {
				project, err := loadStackProject(name, mgr.ComposePath(name))
				if err != nil {
					warn.Fprintf(cmd.ErrOrStderr(), "skipping %s: %v\n", name, err)
					continue
				}
				services := project.ServiceNames()
				sort.Strings(services)
				if len(services) == 0 {
					fmt.Fprintf(w, "%s\t-\t-\n", name)
					continue
				}
				for _, svcName := range services {
					svc, err := project.GetService(svcName)
					if err != nil {
						continue
					}
					image := svc.Image
					if image == "" {
						image = "-"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", name, svcName, image)
				}
			}
			return w.Flush()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	return cmd
}

// loadStackProject parses one stack document through the compose loader.
// Validation and consistency checks are skipped: secret declarations live
// in the root document, so a stack file alone is intentionally incomplete.
func loadStackProject(name, composePath string) (*composetypes.Project, error) {
	raw, err := os.ReadFile(composePath)
	if err != nil {
		return nil, fmt.Errorf("read compose file %s: %w", composePath, err)
	}
	env := make(composetypes.Mapping)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[key] = value
	}
	details := composetypes.ConfigDetails{
		WorkingDir: filepath.Dir(composePath),
		ConfigFiles: []composetypes.ConfigFile{
			{Filename: composePath, Content: raw},
		},
		Environment: env,
	}
	return loader.Load(details, func(o *loader.Options) {
		o.SetProjectName(name, true)
		o.SkipValidation = true
		o.SkipConsistencyCheck = true
	})
}
