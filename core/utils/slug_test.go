package utils

import "testing"

func TestSlugifyAuthor(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Alice", "alice"},
		{"spaces", "Alice Smith", "alice-smith"},
		{"accents folded", "Béyoncé", "beyonce"},
		{"punctuation collapses", "DJ!!Cool??Guy", "dj-cool-guy"},
		{"leading trailing trimmed", "  --Alice--  ", "alice"},
		{"digits kept", "MC 3000", "mc-3000"},
		{"empty", "", ""},
		{"only punctuation", "!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SlugifyAuthor(tt.in); got != tt.want {
				t.Errorf("SlugifyAuthor(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSlugifyAuthorDeterministic(t *testing.T) {
	for _, in := range []string{"Alice Smith", "Béyoncé", "某人"} {
		a, b := SlugifyAuthor(in), SlugifyAuthor(in)
		if a != b {
			t.Errorf("SlugifyAuthor(%q) not deterministic: %q vs %q", in, a, b)
		}
	}
}
