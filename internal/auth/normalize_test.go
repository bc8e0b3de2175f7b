package auth

import "testing"

func TestNormalizeIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase passthrough", "alice@example.com", "alice@example.com"},
		{"uppercase folded", "ALICE@EXAMPLE.COM", "alice@example.com"},
		{"surrounding whitespace", "  alice@example.com\t", "alice@example.com"},
		{"accents stripped", "josé@example.com", "jose@example.com"},
		{"decomposed accent stripped", "José@example.com", "jose@example.com"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeIdentifier(tt.input); got != tt.want {
				t.Errorf("NormalizeIdentifier(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// Visually-confusable variants of one identifier must collide to a single
// canonical form, so one mailbox cannot register twice.
func TestNormalizeIdentifier_Collisions(t *testing.T) {
	variants := []string{
		"jose@example.com",
		"JOSE@example.com",
		"josé@example.com",
		"José@example.com", // decomposed accent
		" jose@example.com ",
	}

	canonical := NormalizeIdentifier(variants[0])
	for _, v := range variants[1:] {
		if got := NormalizeIdentifier(v); got != canonical {
			t.Errorf("NormalizeIdentifier(%q) = %q, want %q", v, got, canonical)
		}
	}
}
