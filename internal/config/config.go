// File: internal/config/config.go
// Brief: Directory layout and flag plumbing shared by composify commands.

// Package config resolves the directory layout composify operates on: the
// docker root, the stacks directory beneath it, the secrets directory, and
// the root aggregator compose file. Values come from flags first, then
// environment variables, then defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// ComposeFileName is the fixed compose document name inside every stack.
	ComposeFileName = "docker-compose.yml"

	envRoot      = "COMPOSIFY_ROOT"
	envStacksDir = "COMPOSIFY_STACKS_DIR"
	envSecrets   = "SECRETSDIR"
)

// Options holds the resolved filesystem layout for one invocation.
type Options struct {
	// RootDir is the docker root holding the root compose document.
	RootDir string
	// StacksDir holds one subdirectory per stack.
	StacksDir string
	// SecretsDir is the flat directory of secret files.
	SecretsDir string
	// LogLevel selects the zap level (debug, info, warn, error).
	LogLevel string
}

// NewOptions returns Options with empty paths; Resolve fills defaults.
func NewOptions() *Options {
	return &Options{LogLevel: "info"}
}

// BindFlags registers the layout flags on the given flag set.
func (o *Options) BindFlags(flags *pflag.FlagSet) {
	flags.StringVar(&o.RootDir, "root", "", "Docker root directory (default $"+envRoot+" or ~/docker)")
	flags.StringVar(&o.StacksDir, "stacks-dir", "", "Stacks directory (default $"+envStacksDir+" or <root>/stacks)")
	flags.StringVar(&o.SecretsDir, "secrets-dir", "", "Secrets directory (default $"+envSecrets+" or <root>/secrets)")
	flags.StringVar(&o.LogLevel, "log-level", o.LogLevel, "Log level for composify output (debug, info, warn, error)")
}

// Resolve fills unset paths from the environment and defaults, and
// normalizes everything to absolute cleaned paths.
func (o *Options) Resolve() error {
	v := viper.New()
	v.SetDefault("root", "")
	if err := v.BindEnv("root", envRoot); err != nil {
		return err
	}
	if err := v.BindEnv("stacksDir", envStacksDir); err != nil {
		return err
	}
	if err := v.BindEnv("secretsDir", envSecrets); err != nil {
		return err
	}

	if strings.TrimSpace(o.RootDir) == "" {
		o.RootDir = strings.TrimSpace(v.GetString("root"))
	}
	if strings.TrimSpace(o.RootDir) == "" {
		home, err := homedir.Dir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		o.RootDir = filepath.Join(home, "docker")
	}
	abs, err := filepath.Abs(o.RootDir)
	if err != nil {
		return fmt.Errorf("resolve root %q: %w", o.RootDir, err)
	}
	o.RootDir = filepath.Clean(abs)

	if strings.TrimSpace(o.StacksDir) == "" {
		o.StacksDir = strings.TrimSpace(v.GetString("stacksDir"))
	}
	if strings.TrimSpace(o.StacksDir) == "" {
		o.StacksDir = filepath.Join(o.RootDir, "stacks")
	}
	if o.StacksDir, err = filepath.Abs(o.StacksDir); err != nil {
		return fmt.Errorf("resolve stacks dir: %w", err)
	}

	if strings.TrimSpace(o.SecretsDir) == "" {
		o.SecretsDir = strings.TrimSpace(v.GetString("secretsDir"))
	}
	if strings.TrimSpace(o.SecretsDir) == "" {
		o.SecretsDir = filepath.Join(o.RootDir, "secrets")
	}
	if o.SecretsDir, err = filepath.Abs(o.SecretsDir); err != nil {
		return fmt.Errorf("resolve secrets dir: %w", err)
	}
	return nil
}

// RootComposePath returns the root aggregator document path.
func (o *Options) RootComposePath() string {
	return filepath.Join(o.RootDir, ComposeFileName)
}

// StackDir returns the directory for the named stack.
func (o *Options) StackDir(stack string) string {
	return filepath.Join(o.StacksDir, stack)
}

// StackComposePath returns the compose document path for the named stack.
func (o *Options) StackComposePath(stack string) string {
	return filepath.Join(o.StacksDir, stack, ComposeFileName)
}

// ValidateStackName rejects names that would escape the stacks directory.
func ValidateStackName(stack string) error {
	stack = strings.TrimSpace(stack)
	if stack == "" {
		return fmt.Errorf("stack name is required")
	}
	if stack != filepath.Base(stack) || stack == "." || stack == ".." {
		return fmt.Errorf("invalid stack name %q", stack)
	}
	if strings.ContainsAny(stack, string(os.PathSeparator)+":") {
		return fmt.Errorf("invalid stack name %q", stack)
	}
	return nil
}
