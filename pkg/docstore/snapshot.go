package docstore

import (
	"encoding/json"
	"sort"
	"strings"
)

// Snapshot is an immutable view of the subtree at Path.
type Snapshot struct {
	path  string
	value any
}

// NewSnapshot wraps an already normalized value.
func NewSnapshot(path string, value any) *Snapshot {
	return &Snapshot{path: strings.Trim(path, "/"), value: value}
}

func (s *Snapshot) Exists() bool {
	if s == nil || s.value == nil {
		return false
	}
	if m, ok := s.value.(map[string]any); ok {
		return len(m) > 0
	}
	return true
}

func (s *Snapshot) Path() string {
	return s.path
}

// Key is the last path segment, empty for the root.
func (s *Snapshot) Key() string {
	if i := strings.LastIndex(s.path, "/"); i >= 0 {
		return s.path[i+1:]
	}
	return s.path
}

// Value returns a copy of the raw value.
func (s *Snapshot) Value() any {
	return Clone(s.value)
}

// Decode unmarshals the value into v through JSON.
func (s *Snapshot) Decode(v any) error {
	data, err := json.Marshal(s.value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// Children returns one snapshot per key of an object value, sorted by key.
// Non-object values have no children.
func (s *Snapshot) Children() []*Snapshot {
	m, ok := s.value.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*Snapshot, 0, len(keys))
	for _, k := range keys {
		out = append(out, NewSnapshot(Join(s.path, k), m[k]))
	}
	return out
}

func (s *Snapshot) Child(name string) *Snapshot {
	segments := strings.Split(strings.Trim(name, "/"), "/")
	return NewSnapshot(Join(s.path, name), ValueAt(s.value, segments))
}

// IsObject reports whether the value is a JSON object.
func (s *Snapshot) IsObject() bool {
	_, ok := s.value.(map[string]any)
	return ok
}
