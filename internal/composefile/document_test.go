package composefile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileReportsNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "docker-compose.yml"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestParseErrorCarriesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docker-compose.yml")
	if err := os.WriteFile(path, []byte("services: [unclosed\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	_, err := Load(path)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Path != path {
		t.Fatalf("expected path %s in error, got %s", path, parseErr.Path)
	}
}

func TestRoundTripIsStable(t *testing.T) {
	doc := NewDocument()
	svc := &Service{Name: "web", Image: "nginx:latest", Restart: "unless-stopped"}
	if err := doc.MergeService("web", svc.Node(), MergeUpsert); err != nil {
		t.Fatalf("merge: %v", err)
	}
	first, err := doc.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	reparsed, err := Parse(first, "test")
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	second, err := reparsed.Marshal()
	if err != nil {
		t.Fatalf("marshal again: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("round trip changed output:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestRoundTripPreservesUnknownContent(t *testing.T) {
	raw := `# Managed by hand, do not reorder.
version: "3.9"
services:
  web:
    image: nginx:latest
    x-custom-field: keepme
networks:
  t2_proxy:
    external: true
x-templates:
  logging: &default-logging
    driver: json-file
`
	doc, err := Parse([]byte(raw), "test")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := doc.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	text := string(out)
	for _, want := range []string{
		"Managed by hand",
		`version: "3.9"`,
		"x-custom-field: keepme",
		"x-templates:",
		"external: true",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("round trip dropped %q:\n%s", want, text)
		}
	}
	// Top-level order must survive.
	if strings.Index(text, "services:") > strings.Index(text, "networks:") {
		t.Fatalf("section order changed:\n%s", text)
	}
}

func TestEnsureSectionRevivesNullBody(t *testing.T) {
	doc, err := Parse([]byte("services:\n"), "test")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	svc := &Service{Name: "web", Image: "nginx:latest"}
	if err := doc.MergeService("web", svc.Node(), MergeUpsert); err != nil {
		t.Fatalf("merge into null section: %v", err)
	}
	if !doc.HasService("web") {
		t.Fatalf("service missing after merge")
	}
}

func TestSaveDoesNotClobberOnMissingDir(t *testing.T) {
	doc := NewDocument()
	err := doc.Save(filepath.Join(t.TempDir(), "missing", "docker-compose.yml"))
	if err == nil {
		t.Fatalf("expected error saving into missing directory")
	}
}

func TestServiceNamesInDocumentOrder(t *testing.T) {
	raw := "services:\n  zeta:\n    image: a\n  alpha:\n    image: b\n"
	doc, err := Parse([]byte(raw), "test")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	names := doc.ServiceNames()
	if len(names) != 2 || names[0] != "zeta" || names[1] != "alpha" {
		t.Fatalf("expected document order [zeta alpha], got %v", names)
	}
}
