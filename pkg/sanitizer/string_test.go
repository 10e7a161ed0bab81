package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "basic trim",
			input: "  Phuket  ",
			want:  "Phuket",
		},
		{
			name:  "multiple spaces",
			input: "Deluxe    Room",
			want:  "Deluxe Room",
		},
		{
			name:  "tabs and newlines",
			input: "Deluxe\t\nRoom",
			want:  "Deluxe Room",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimAndNormalize(tt.input)
			if got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestKeySegment(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "single space", input: "Deluxe Room", want: "Deluxe_Room"},
		{name: "each rune replaced", input: "Deluxe  Room", want: "Deluxe__Room"},
		{name: "tab and newline", input: "Sea\tView\nSuite", want: "Sea_View_Suite"},
		{name: "no whitespace", input: "Single", want: "Single"},
		{name: "case preserved", input: "deluxe ROOM", want: "deluxe_ROOM"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KeySegment(tt.input)
			if got != tt.want {
				t.Errorf("KeySegment(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if KeySegment(got) != got {
				t.Errorf("KeySegment should be idempotent for %q", tt.input)
			}
		})
	}
}

func TestUserIDFromEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a@b.com", "a@b_com"},
		{"first.last@mail.example.com", "first_last@mail_example_com"},
		{"nodots", "nodots"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := UserIDFromEmail(tt.input); got != tt.want {
			t.Errorf("UserIDFromEmail(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	if UserIDFromEmail("a.b@x.com") != UserIDFromEmail("a_b@x_com") {
		t.Errorf("dot and underscore spellings should collide")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}
