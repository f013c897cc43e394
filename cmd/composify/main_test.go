package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCommand(t *testing.T, root string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{
		"--root", root,
		"--stacks-dir", filepath.Join(root, "stacks"),
		"--secrets-dir", filepath.Join(root, "secrets"),
	}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := newRootCommand()
	want := map[string]bool{"new": false, "append": false, "create-db": false, "list": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("subcommand %q not registered", name)
		}
	}
}

func TestScenarioNewAppendCreateDB(t *testing.T) {
	root := t.TempDir()

	if _, err := runCommand(t, root, "new", "billing", "--yes"); err != nil {
		t.Fatalf("new billing: %v", err)
	}
	composePath := filepath.Join(root, "stacks", "billing", "docker-compose.yml")
	if _, err := os.Stat(composePath); err != nil {
		t.Fatalf("compose document not created: %v", err)
	}

	if _, err := runCommand(t, root, "append", "billing", "web", "nginx:latest", "--yes"); err != nil {
		t.Fatalf("append web: %v", err)
	}
	raw, err := os.ReadFile(composePath)
	if err != nil {
		t.Fatalf("read compose: %v", err)
	}
	if !strings.Contains(string(raw), "nginx:latest") {
		t.Fatalf("web service missing:\n%s", raw)
	}

	if _, err := runCommand(t, root, "create-db", "billing", "--yes"); err != nil {
		t.Fatalf("create-db billing: %v", err)
	}
	secretPath := filepath.Join(root, "secrets", "billing_db_password")
	if _, err := os.Stat(secretPath); err != nil {
		t.Fatalf("secret file missing: %v", err)
	}
	rootRaw, err := os.ReadFile(filepath.Join(root, "docker-compose.yml"))
	if err != nil {
		t.Fatalf("read root compose: %v", err)
	}
	if !strings.Contains(string(rootRaw), "billing_db_password") {
		t.Fatalf("root document missing secret declaration:\n%s", rootRaw)
	}
}

func TestAppendUnknownStackFails(t *testing.T) {
	root := t.TempDir()
	_, err := runCommand(t, root, "append", "unknownstack", "web", "nginx", "--yes")
	if err == nil {
		t.Fatalf("expected append to fail for missing stack")
	}
	if _, statErr := os.Stat(filepath.Join(root, "stacks", "unknownstack")); !os.IsNotExist(statErr) {
		t.Fatalf("failed append must not create files")
	}
}

func TestNewExistingStackFails(t *testing.T) {
	root := t.TempDir()
	if _, err := runCommand(t, root, "new", "billing", "--yes"); err != nil {
		t.Fatalf("first new: %v", err)
	}
	if _, err := runCommand(t, root, "new", "billing", "--yes"); err == nil {
		t.Fatalf("expected second new to fail")
	}
}

func TestCreateDBDryRunWritesNothing(t *testing.T) {
	root := t.TempDir()
	if _, err := runCommand(t, root, "new", "billing", "--yes"); err != nil {
		t.Fatalf("new: %v", err)
	}
	composePath := filepath.Join(root, "stacks", "billing", "docker-compose.yml")
	before, _ := os.ReadFile(composePath)
	out, err := runCommand(t, root, "create-db", "billing", "--dry-run")
	if err != nil {
		t.Fatalf("dry-run: %v", err)
	}
	if !strings.Contains(out, "billing_db_password") {
		t.Fatalf("dry-run should name the secret:\n%s", out)
	}
	after, _ := os.ReadFile(composePath)
	if string(before) != string(after) {
		t.Fatalf("dry-run modified the document")
	}
	if _, statErr := os.Stat(filepath.Join(root, "secrets", "billing_db_password")); !os.IsNotExist(statErr) {
		t.Fatalf("dry-run stored a secret")
	}
}

func TestAppendDryRunWritesNothing(t *testing.T) {
	root := t.TempDir()
	if _, err := runCommand(t, root, "new", "billing", "--yes"); err != nil {
		t.Fatalf("new: %v", err)
	}
	composePath := filepath.Join(root, "stacks", "billing", "docker-compose.yml")
	before, _ := os.ReadFile(composePath)
	out, err := runCommand(t, root, "append", "billing", "web", "nginx:latest", "--dry-run")
	if err != nil {
		t.Fatalf("dry-run: %v", err)
	}
	if !strings.Contains(out, "nginx:latest") {
		t.Fatalf("dry-run should print the snippet:\n%s", out)
	}
	after, _ := os.ReadFile(composePath)
	if string(before) != string(after) {
		t.Fatalf("dry-run modified the document")
	}
}
