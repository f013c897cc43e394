package composefile

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DeclareSecret ensures the document's secrets section declares name as an
// external file reference. It is idempotent: an existing declaration with
// the same file path is left alone and reported as unchanged. A declaration
// with the same name but a different file fails with ErrConflict. Two
// different secrets must not share a logical name, and re-declaring must
// never silently rotate a referenced secret.
func (d *Document) DeclareSecret(name, file string) (bool, error) {
	secrets, err := d.EnsureSection("secrets")
	if err != nil {
		return false, err
	}
	if existing := mapGet(secrets, name); existing != nil {
		current := lookupScalar(existing, "file")
		if current == file {
			return false, nil
		}
		return false, fmt.Errorf("%w: secret %q already declared with file %q", ErrConflict, name, current)
	}
	decl := newMappingNode()
	mapSet(decl, "file", newScalarNode(file))
	mapSet(secrets, name, decl)
	return true, nil
}

// SecretFile returns the declared file path for a secret, or "".
func (d *Document) SecretFile(name string) string {
	secrets := d.Section("secrets")
	if secrets == nil {
		return ""
	}
	decl := mapGet(secrets, name)
	if decl == nil {
		return ""
	}
	return lookupScalar(decl, "file")
}

// AppendInclude adds path to the top-level include list with a comment line
// above the new entry. Returns false without modifying the document when the
// path is already listed.
func (d *Document) AppendInclude(path, comment string) (bool, error) {
	include := mapGet(d.root, "include")
	if include == nil {
		include = newSequenceNode()
		mapSet(d.root, "include", include)
	}
	if isNullNode(include) {
		*include = *newSequenceNode()
	}
	if include.Kind != yaml.SequenceNode {
		return false, fmt.Errorf("top-level include is not a list")
	}
	for _, entry := range include.Content {
		if entry.Kind == yaml.ScalarNode && entry.Value == path {
			return false, nil
		}
	}
	entry := newScalarNode(path)
	if comment != "" {
		entry.HeadComment = comment
	}
	include.Content = append(include.Content, entry)
	return true, nil
}

// Includes lists the include entries in document order.
func (d *Document) Includes() []string {
	include := mapGet(d.root, "include")
	if include == nil || include.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([]string, 0, len(include.Content))
	for _, entry := range include.Content {
		if entry.Kind == yaml.ScalarNode {
			out = append(out, entry.Value)
		}
	}
	return out
}
