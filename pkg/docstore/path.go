package docstore

import (
	"fmt"
	"strings"
)

const forbiddenSegmentChars = ".#$[]"

// Join builds a path from segments, ignoring empty ones.
func Join(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.Trim(s, "/")
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}

// Split validates path and returns its segments. The root ("" or "/") has none.
func Split(path string) ([]string, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return []string{}, nil
	}
	segments := strings.Split(trimmed, "/")
	for _, seg := range segments {
		if err := ValidateSegment(seg); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPath, path, err)
		}
	}
	return segments, nil
}

// SplitForWrite is Split but rejects the root.
func SplitForWrite(path string) ([]string, error) {
	segments, err := Split(path)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: writes at the root are not allowed", ErrInvalidPath)
	}
	return segments, nil
}

func ValidateSegment(seg string) error {
	if seg == "" {
		return fmt.Errorf("empty segment")
	}
	if strings.ContainsAny(seg, forbiddenSegmentChars) {
		return fmt.Errorf("segment %q contains one of %q", seg, forbiddenSegmentChars)
	}
	for _, r := range seg {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("segment %q contains a control character", seg)
		}
	}
	return nil
}

// Overlaps reports whether a change at one path can affect the other.
func Overlaps(a, b []string) bool {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Prefixes returns every ancestor path of segments plus the path itself, shortest first.
func Prefixes(segments []string) []string {
	out := make([]string, 0, len(segments))
	for i := 1; i <= len(segments); i++ {
		out = append(out, strings.Join(segments[:i], "/"))
	}
	return out
}
