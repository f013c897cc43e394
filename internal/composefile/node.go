package composefile

import (
	"gopkg.in/yaml.v3"
)

func newMappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func newSequenceNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
}

func newScalarNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func isNullNode(n *yaml.Node) bool {
	return n != nil && n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

// mapGet returns the value node for key in a mapping node, or nil.
func mapGet(mapping *yaml.Node, key string) *yaml.Node {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// mapSet replaces the value for key in place, or appends the pair at the end
// of the mapping so existing key order is never disturbed.
func mapSet(mapping *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = value
			return
		}
	}
	mapping.Content = append(mapping.Content, newScalarNode(key), value)
}

func mapKeys(mapping *yaml.Node) []string {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keys = append(keys, mapping.Content[i].Value)
	}
	return keys
}

// lookupScalar walks a chain of mapping keys and returns the scalar value at
// the end, or "".
func lookupScalar(node *yaml.Node, keys ...string) string {
	current := node
	for _, key := range keys {
		current = mapGet(current, key)
		if current == nil {
			return ""
		}
	}
	if current.Kind != yaml.ScalarNode {
		return ""
	}
	return current.Value
}

// scalarSequence converts a string slice to a sequence node.
func scalarSequence(values []string) *yaml.Node {
	seq := newSequenceNode()
	for _, v := range values {
		seq.Content = append(seq.Content, newScalarNode(v))
	}
	return seq
}

// renderNode serializes a single node; used for dedup keys of non-scalar
// sequence entries.
func renderNode(n *yaml.Node) string {
	raw, err := yaml.Marshal(n)
	if err != nil {
		return ""
	}
	return string(raw)
}
