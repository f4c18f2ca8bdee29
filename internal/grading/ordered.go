package grading

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// OrderedMap is a string-keyed mapping that remembers insertion order. Criteria
// use it so fields and sections are graded, and reported, in the order an
// instructor wrote them. The zero value is an empty map ready to use; it is
// also "absent", which an empty but decoded or constructed map is not.
type OrderedMap[V any] struct {
	keys []string
	vals map[string]V
}

// Entry is a single key/value pair of an OrderedMap.
type Entry[V any] struct {
	Key   string
	Value V
}

// OrderedOf builds an OrderedMap from entries, in order.
func OrderedOf[V any](entries ...Entry[V]) OrderedMap[V] {
	m := OrderedMap[V]{vals: make(map[string]V, len(entries))}
	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}
	return m
}

// Set stores v under k. A new key goes to the end; an existing key keeps its
// position.
func (m *OrderedMap[V]) Set(k string, v V) {
	if m.vals == nil {
		m.vals = make(map[string]V)
	}
	if _, ok := m.vals[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.vals[k] = v
}

func (m OrderedMap[V]) Get(k string) (V, bool) {
	v, ok := m.vals[k]
	return v, ok
}

func (m OrderedMap[V]) Len() int { return len(m.keys) }

// Present reports whether the map was given at all, even if empty.
func (m OrderedMap[V]) Present() bool { return m.vals != nil }

// Keys returns a copy of the keys in order.
func (m OrderedMap[V]) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Entries returns the pairs in order.
func (m OrderedMap[V]) Entries() []Entry[V] {
	out := make([]Entry[V], 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, Entry[V]{Key: k, Value: m.vals[k]})
	}
	return out
}

// MarshalJSON writes the map as a JSON object with keys in order, or null
// when the map is absent.
func (m OrderedMap[V]) MarshalJSON() ([]byte, error) {
	if !m.Present() {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping its key order. JSON null yields an
// absent map. A repeated key keeps its first position and its last value.
func (m *OrderedMap[V]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = OrderedMap[V]{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("ordered map: expected object, got %v", tok)
	}
	out := OrderedMap[V]{vals: map[string]V{}}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("ordered map: expected string key, got %v", kt)
		}
		var v V
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("ordered map: key %q: %w", key, err)
		}
		out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}

// MarshalYAML emits a mapping node with keys in order.
func (m OrderedMap[V]) MarshalYAML() (interface{}, error) {
	if !m.Present() {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range m.keys {
		var vn yaml.Node
		if err := vn.Encode(m.vals[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&vn,
		)
	}
	return node, nil
}

// UnmarshalYAML reads a YAML mapping, keeping its key order. Values are
// decoded strictly: a field the value type does not have is an error.
func (m *OrderedMap[V]) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		*m = OrderedMap[V]{}
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("ordered map: line %d: expected mapping", value.Line)
	}
	out := OrderedMap[V]{vals: map[string]V{}}
	for i := 0; i+1 < len(value.Content); i += 2 {
		kn, vn := value.Content[i], value.Content[i+1]
		var v V
		if err := decodeYAMLStrict(vn, &v); err != nil {
			return fmt.Errorf("ordered map: key %q (line %d): %w", kn.Value, kn.Line, err)
		}
		out.Set(kn.Value, v)
	}
	*m = out
	return nil
}

// decodeYAMLStrict decodes n with KnownFields set. Node.Decode cannot carry
// decoder options, so the node is re-encoded and read back.
func decodeYAMLStrict(n *yaml.Node, out any) error {
	b, err := yaml.Marshal(n)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	return dec.Decode(out)
}
