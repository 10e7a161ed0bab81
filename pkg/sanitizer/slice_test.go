package sanitizer

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeStringSlice(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "lowercase labels",
			input: []string{"Deluxe Room", "SINGLE"},
			want:  []string{"deluxe room", "single"},
		},
		{
			name:  "remove duplicates",
			input: []string{"Suite", "suite", " SUITE "},
			want:  []string{"suite"},
		},
		{
			name:  "filter empty strings",
			input: []string{"Suite", "", "  ", "Single"},
			want:  []string{"suite", "single"},
		},
		{
			name:  "nil input",
			input: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeStringSlice(tt.input, NormalizeLabel)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeStringSlice(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestUniqueValues(t *testing.T) {
	got := UniqueValues([]string{"Phuket", "Bangkok", "phuket", " Bangkok ", "", "Krabi"})
	want := []string{"Phuket", "Bangkok", "Krabi"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UniqueValues() = %v, want %v", got, want)
	}

	custom := NormalizeStringSlice([]string{"a b", "A B"}, strings.ToUpper)
	if !reflect.DeepEqual(custom, []string{"A B"}) {
		t.Errorf("custom normalizer result = %v", custom)
	}
}
