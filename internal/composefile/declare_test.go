package composefile

import (
	"errors"
	"strings"
	"testing"
)

func TestDeclareSecretIdempotent(t *testing.T) {
	doc := NewDocument()
	changed, err := doc.DeclareSecret("billing_db_password", "/secrets/billing_db_password")
	if err != nil || !changed {
		t.Fatalf("first declare: changed=%v err=%v", changed, err)
	}
	changed, err = doc.DeclareSecret("billing_db_password", "/secrets/billing_db_password")
	if err != nil {
		t.Fatalf("re-declare: %v", err)
	}
	if changed {
		t.Fatalf("identical re-declare must be a no-op")
	}
	out, _ := doc.Marshal()
	if n := strings.Count(string(out), "billing_db_password:"); n != 1 {
		t.Fatalf("expected exactly one declaration, got %d:\n%s", n, out)
	}
}

func TestDeclareSecretConflictOnDifferentFile(t *testing.T) {
	doc := NewDocument()
	if _, err := doc.DeclareSecret("db_password", "/secrets/a"); err != nil {
		t.Fatalf("declare: %v", err)
	}
	_, err := doc.DeclareSecret("db_password", "/secrets/b")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestSecretFile(t *testing.T) {
	doc := NewDocument()
	if got := doc.SecretFile("missing"); got != "" {
		t.Fatalf("expected empty path for missing secret, got %q", got)
	}
	if _, err := doc.DeclareSecret("s", "/secrets/s"); err != nil {
		t.Fatalf("declare: %v", err)
	}
	if got := doc.SecretFile("s"); got != "/secrets/s" {
		t.Fatalf("expected /secrets/s, got %q", got)
	}
}

func TestAppendIncludeIdempotentWithComment(t *testing.T) {
	doc := NewDocument()
	added, err := doc.AppendInclude("stacks/billing/docker-compose.yml", "Billing")
	if err != nil || !added {
		t.Fatalf("first append: added=%v err=%v", added, err)
	}
	added, err = doc.AppendInclude("stacks/billing/docker-compose.yml", "Billing")
	if err != nil {
		t.Fatalf("re-append: %v", err)
	}
	if added {
		t.Fatalf("duplicate include must be a no-op")
	}
	out, _ := doc.Marshal()
	text := string(out)
	if n := strings.Count(text, "stacks/billing/docker-compose.yml"); n != 1 {
		t.Fatalf("expected one include entry, got %d:\n%s", n, text)
	}
	if !strings.Contains(text, "# Billing") {
		t.Fatalf("comment line missing:\n%s", text)
	}
}

func TestAppendIncludeRejectsNonList(t *testing.T) {
	doc := mustParse(t, "include:\n  not: a-list\n")
	if _, err := doc.AppendInclude("stacks/x/docker-compose.yml", ""); err == nil {
		t.Fatalf("expected error for non-list include")
	}
}

func TestIncludesOrder(t *testing.T) {
	doc := NewDocument()
	for _, p := range []string{"stacks/a/docker-compose.yml", "stacks/b/docker-compose.yml"} {
		if _, err := doc.AppendInclude(p, ""); err != nil {
			t.Fatalf("append %s: %v", p, err)
		}
	}
	got := doc.Includes()
	if len(got) != 2 || got[0] != "stacks/a/docker-compose.yml" {
		t.Fatalf("unexpected includes %v", got)
	}
}
