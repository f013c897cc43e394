// config_test.go verifies layout resolution and stack name validation.
package config

import (
	"path/filepath"
	"testing"
)

func TestResolveDerivesLayoutFromRoot(t *testing.T) {
	root := t.TempDir()
	opts := NewOptions()
	opts.RootDir = root
	if err := opts.Resolve(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if opts.StacksDir != filepath.Join(root, "stacks") {
		t.Fatalf("stacks dir = %s", opts.StacksDir)
	}
	if opts.SecretsDir != filepath.Join(root, "secrets") {
		t.Fatalf("secrets dir = %s", opts.SecretsDir)
	}
	if opts.RootComposePath() != filepath.Join(root, ComposeFileName) {
		t.Fatalf("root compose = %s", opts.RootComposePath())
	}
}

func TestResolveHonorsEnv(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	t.Setenv("COMPOSIFY_ROOT", root)
	t.Setenv("SECRETSDIR", other)
	opts := NewOptions()
	if err := opts.Resolve(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if opts.RootDir != root {
		t.Fatalf("root = %s, want %s", opts.RootDir, root)
	}
	if opts.SecretsDir != other {
		t.Fatalf("secrets dir = %s, want %s", opts.SecretsDir, other)
	}
}

func TestResolveFlagBeatsEnv(t *testing.T) {
	flagRoot := t.TempDir()
	t.Setenv("COMPOSIFY_ROOT", t.TempDir())
	opts := NewOptions()
	opts.RootDir = flagRoot
	if err := opts.Resolve(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if opts.RootDir != flagRoot {
		t.Fatalf("flag value should win, got %s", opts.RootDir)
	}
}

func TestStackComposePath(t *testing.T) {
	opts := &Options{StacksDir: "/srv/stacks"}
	want := filepath.Join("/srv/stacks", "billing", ComposeFileName)
	if got := opts.StackComposePath("billing"); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestValidateStackName(t *testing.T) {
	for _, name := range []string{"billing", "media-server", "a1"} {
		if err := ValidateStackName(name); err != nil {
			t.Fatalf("%q should be valid: %v", name, err)
		}
	}
	for _, name := range []string{"", ".", "..", "a/b", "../escape", " "} {
		if err := ValidateStackName(name); err == nil {
			t.Fatalf("%q should be rejected", name)
		}
	}
}
