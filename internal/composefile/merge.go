package composefile

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrConflict reports a service collision the merge policy refuses to
// resolve silently.
var ErrConflict = errors.New("service conflict")

// MergePolicy controls how MergeService treats an existing service of the
// same name.
type MergePolicy int

const (
	// MergeUpsert overwrites scalar fields of an existing service; append
	// is explicitly an upsert.
	MergeUpsert MergePolicy = iota
	// MergeGuardImage fails with ErrConflict when the existing service uses
	// a different image family, so an unrelated service is never silently
	// replaced by a database of the same name.
	MergeGuardImage
)

// MergeService inserts or updates the named service. New services are
// appended after the last existing one to keep diffs minimal. For existing
// services: scalars are overwritten, nested mappings merged key-by-key, and
// sequences unioned on a per-field dedup key with new entries appended.
func (d *Document) MergeService(name string, spec *yaml.Node, policy MergePolicy) error {
	if spec == nil || spec.Kind != yaml.MappingNode {
		return fmt.Errorf("service %q: spec is not a mapping", name)
	}
	services, err := d.EnsureSection("services")
	if err != nil {
		return err
	}
	existing := mapGet(services, name)
	if existing == nil {
		mapSet(services, name, spec)
		return nil
	}
	if existing.Kind != yaml.MappingNode {
		return fmt.Errorf("service %q: existing entry is not a mapping", name)
	}
	if policy == MergeGuardImage {
		oldImage := lookupScalar(existing, "image")
		newImage := lookupScalar(spec, "image")
		if oldImage != "" && newImage != "" && imageFamily(oldImage) != imageFamily(newImage) {
			return fmt.Errorf("%w: service %q already uses image %q", ErrConflict, name, oldImage)
		}
	}
	mergeServiceFields(existing, spec)
	return nil
}

// imageFamily strips the tag/digest from an image reference, leaving the
// repository part used for conflict detection.
func imageFamily(image string) string {
	if at := strings.Index(image, "@"); at >= 0 {
		image = image[:at]
	}
	slash := strings.LastIndex(image, "/")
	if colon := strings.LastIndex(image, ":"); colon > slash {
		image = image[:colon]
	}
	return image
}

func mergeServiceFields(dst, src *yaml.Node) {
	for i := 0; i+1 < len(src.Content); i += 2 {
		key := src.Content[i].Value
		value := src.Content[i+1]
		current := mapGet(dst, key)
		if current == nil {
			mapSet(dst, key, value)
			continue
		}
		switch {
		case current.Kind == yaml.MappingNode && value.Kind == yaml.MappingNode:
			mergeMapping(current, value)
		case current.Kind == yaml.SequenceNode && value.Kind == yaml.SequenceNode:
			mergeSequence(current, value, key)
		default:
			mapSet(dst, key, value)
		}
	}
}

// mergeMapping merges src into dst key-by-key: new keys appended, existing
// keys overwritten, unrelated keys kept.
func mergeMapping(dst, src *yaml.Node) {
	for i := 0; i+1 < len(src.Content); i += 2 {
		mapSet(dst, src.Content[i].Value, src.Content[i+1])
	}
}

// mergeSequence unions src into dst, comparing entries by a field-specific
// normalized key so re-running an operation never duplicates a mount or
// port mapping. New entries are appended in order.
func mergeSequence(dst, src *yaml.Node, field string) {
	seen := make(map[string]bool, len(dst.Content))
	for _, entry := range dst.Content {
		seen[sequenceKey(field, entry)] = true
	}
	for _, entry := range src.Content {
		key := sequenceKey(field, entry)
		if seen[key] {
			continue
		}
		seen[key] = true
		dst.Content = append(dst.Content, entry)
	}
}

// sequenceKey derives the dedup key for one sequence entry. Volumes dedup on
// the container target path, ports on the full host:container pair, and
// everything else on the whole scalar. Non-scalar entries (long syntax) fall
// back to their serialized form.
func sequenceKey(field string, entry *yaml.Node) string {
	if entry.Kind != yaml.ScalarNode {
		if field == "volumes" {
			if target := lookupScalar(entry, "target"); target != "" {
				return target
			}
		}
		return renderNode(entry)
	}
	value := strings.TrimSpace(entry.Value)
	switch field {
	case "volumes":
		return volumeTarget(value)
	case "ports":
		return value
	default:
		return value
	}
}

// volumeTarget extracts the container path from a short-syntax volume entry
// (source:target[:mode]). Entries without a source map to themselves.
func volumeTarget(entry string) string {
	parts := strings.Split(entry, ":")
	switch len(parts) {
	case 1:
		return parts[0]
	case 2:
		return parts[1]
	default:
		// Windows-style sources contain colons; the target is the
		// second-to-last part when the last looks like a mode flag.
		last := parts[len(parts)-1]
		if last == "ro" || last == "rw" || strings.HasPrefix(last, "z") || strings.HasPrefix(last, "Z") {
			return parts[len(parts)-2]
		}
		return parts[len(parts)-1]
	}
}
