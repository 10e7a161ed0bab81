package docstore

import (
	"encoding/json"
	"fmt"
)

// Normalize converts value into the JSON data model (map[string]any, []any,
// float64, string, bool) and prunes nulls and empty objects.
func Normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return prune(out), nil
}

func prune(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			pruned := prune(child)
			if pruned == nil {
				delete(t, k)
				continue
			}
			t[k] = pruned
		}
		if len(t) == 0 {
			return nil
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = prune(child)
		}
		return t
	default:
		return v
	}
}

// Clone deep-copies a normalized value.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		cp := make(map[string]any, len(t))
		for k, child := range t {
			cp[k] = Clone(child)
		}
		return cp
	case []any:
		cp := make([]any, len(t))
		for i, child := range t {
			cp[i] = Clone(child)
		}
		return cp
	default:
		return v
	}
}

// ValueAt walks segments into tree. Missing paths return nil.
func ValueAt(tree any, segments []string) any {
	cur := tree
	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[seg]
		if !ok {
			return nil
		}
	}
	return cur
}

// SetValueAt returns tree with value placed at segments, creating objects on
// the way and replacing non-object intermediates. A nil value removes the entry
// and prunes parents left empty. The returned tree may be nil.
func SetValueAt(tree any, segments []string, value any) any {
	if len(segments) == 0 {
		return value
	}
	m, ok := tree.(map[string]any)
	if !ok {
		if value == nil {
			return tree
		}
		m = map[string]any{}
	}
	child := SetValueAt(m[segments[0]], segments[1:], value)
	if child == nil {
		delete(m, segments[0])
	} else {
		m[segments[0]] = child
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
