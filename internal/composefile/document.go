// Package composefile is a round-trip model for compose documents. It keeps
// the parsed yaml.v3 node tree instead of decoding into a schema, so key
// order, comments, and sections this tool does not understand survive a
// load→mutate→save cycle untouched. Operators hand-edit these files between
// runs; a lossy rewrite would silently destroy their edits.
package composefile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrNotFound reports a missing compose document.
var ErrNotFound = errors.New("compose document not found")

// ParseError wraps a YAML decode failure with the offending path.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Document is an in-memory compose document. The zero value is not usable;
// construct via Load or NewDocument.
type Document struct {
	root *yaml.Node // top-level mapping
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{root: newMappingNode()}
}

// Load reads and parses the compose document at path.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(raw, path)
}

// Parse decodes raw bytes into a document. The path is used in diagnostics
// only.
func Parse(raw []byte, path string) (*Document, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	root := &node
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return NewDocument(), nil
		}
		root = root.Content[0]
	}
	if root.Kind == 0 {
		return NewDocument(), nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("top level is not a mapping")}
	}
	return &Document{root: root}, nil
}

// Marshal serializes the document with 2-space indentation.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the document to path. The write is atomic: the content lands
// in a temp file in the same directory and is renamed over the target, so a
// failed write never truncates an existing document.
func (d *Document) Save(path string) error {
	raw, err := d.Marshal()
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".composify-*.yml")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Section returns the mapping node for a top-level section, or nil.
func (d *Document) Section(name string) *yaml.Node {
	return mapGet(d.root, name)
}

// EnsureSection returns the mapping node for a top-level section, creating
// an empty one at the end of the document when absent.
func (d *Document) EnsureSection(name string) (*yaml.Node, error) {
	if existing := mapGet(d.root, name); existing != nil {
		if existing.Kind != yaml.MappingNode && !isNullNode(existing) {
			return nil, fmt.Errorf("top-level %q is not a mapping", name)
		}
		if isNullNode(existing) {
			// `services:` with no body parses as a null scalar.
			*existing = *newMappingNode()
		}
		return existing, nil
	}
	section := newMappingNode()
	mapSet(d.root, name, section)
	return section, nil
}

// SectionKeys returns the key names of a top-level mapping section in
// document order.
func (d *Document) SectionKeys(name string) []string {
	section := mapGet(d.root, name)
	if section == nil || section.Kind != yaml.MappingNode {
		return nil
	}
	return mapKeys(section)
}

// ServiceNames lists services in document order.
func (d *Document) ServiceNames() []string {
	return d.SectionKeys("services")
}

// HasService reports whether the named service exists.
func (d *Document) HasService(name string) bool {
	services := d.Section("services")
	if services == nil {
		return false
	}
	return mapGet(services, name) != nil
}
