package phone

import (
	"errors"
	"strings"
	"testing"
)

// TestNormalize covers local numbers, formatting noise and numbers
// already carrying the country code.
func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"local with leading zero", "01012345678", "201012345678"},
		{"spaces and dashes", "010 1234-5678", "201012345678"},
		{"already international", "201012345678", "201012345678"},
		{"no leading zero", "1012345678", "201012345678"},
		{"parentheses", "(010) 12345678", "201012345678"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.raw, "20")
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", tc.raw, err)
			}
			if got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

// TestNormalize_Empty rejects inputs with no digits at all
func TestNormalize_Empty(t *testing.T) {
	for _, raw := range []string{"", "   ", "abc-def", "0"} {
		if _, err := Normalize(raw, "20"); !errors.Is(err, ErrEmptyNumber) {
			t.Errorf("Normalize(%q) error = %v, want ErrEmptyNumber", raw, err)
		}
	}
}

// TestNormalize_DefaultCountryCode falls back to Egypt when no code is
// configured.
func TestNormalize_DefaultCountryCode(t *testing.T) {
	got, err := Normalize("01012345678", "")
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if got != "201012345678" {
		t.Errorf("Normalize with default code = %q, want %q", got, "201012345678")
	}
}

// TestWhatsAppLink checks the deep link format and message escaping
func TestWhatsAppLink(t *testing.T) {
	link := WhatsAppLink("201012345678", "Hello Ahmed, your result is ready")
	if !strings.HasPrefix(link, "https://wa.me/201012345678?text=") {
		t.Errorf("unexpected link prefix: %q", link)
	}
	if strings.ContainsAny(link, " ,") {
		t.Errorf("link contains unescaped characters: %q", link)
	}

	bare := WhatsAppLink("201012345678", "")
	if bare != "https://wa.me/201012345678" {
		t.Errorf("link without message = %q, want %q", bare, "https://wa.me/201012345678")
	}
}
