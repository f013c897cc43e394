package secretstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPutGetRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "secrets"), nil)
	if err := store.Put("billing_db_password", "hunter2"); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Get("billing_db_password")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "hunter2" {
		t.Fatalf("expected stored value, got %q", got)
	}
}

func TestPutRefusesOverwrite(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "secrets"), nil)
	if err := store.Put("name", "one"); err != nil {
		t.Fatalf("put: %v", err)
	}
	err := store.Put("name", "two")
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	got, _ := store.Get("name")
	if got != "one" {
		t.Fatalf("original value must survive refused overwrite, got %q", got)
	}
}

func TestPutPermissions(t *testing.T) {
	root := filepath.Join(t.TempDir(), "secrets")
	store := NewStore(root, nil)
	if err := store.Put("name", "value"); err != nil {
		t.Fatalf("put: %v", err)
	}
	dirInfo, err := os.Stat(root)
	if err != nil {
		t.Fatalf("stat dir: %v", err)
	}
	if perm := dirInfo.Mode().Perm(); perm != 0o700 {
		t.Fatalf("secrets dir permission = %o, want 700", perm)
	}
	fileInfo, err := os.Stat(store.PathFor("name"))
	if err != nil {
		t.Fatalf("stat file: %v", err)
	}
	if perm := fileInfo.Mode().Perm(); perm != 0o600 {
		t.Fatalf("secret file permission = %o, want 600", perm)
	}
}

func TestExistsAndRemove(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "secrets"), nil)
	if store.Exists("name") {
		t.Fatalf("missing secret reported as existing")
	}
	if err := store.Put("name", "value"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !store.Exists("name") {
		t.Fatalf("stored secret not reported")
	}
	if err := store.Remove("name"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if store.Exists("name") {
		t.Fatalf("removed secret still reported")
	}
	if err := store.Remove("name"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListSorted(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "secrets"), nil)
	names, err := store.List()
	if err != nil || names != nil {
		t.Fatalf("empty store: names=%v err=%v", names, err)
	}
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := store.Put(name, "v"); err != nil {
			t.Fatalf("put %s: %v", name, err)
		}
	}
	names, err = store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 3 || names[0] != "alpha" || names[2] != "zeta" {
		t.Fatalf("expected sorted names, got %v", names)
	}
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"billing_db_password", "a1", "x"} {
		if err := ValidateName(name); err != nil {
			t.Fatalf("%q should be valid: %v", name, err)
		}
	}
	for _, name := range []string{"", "_leading", "UPPER", "has-dash", "has/slash", "has space", "../escape"} {
		if err := ValidateName(name); err == nil {
			t.Fatalf("%q should be rejected", name)
		}
	}
}
