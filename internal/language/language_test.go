package language

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// backend codes pass through
		{"en", "en"},
		{"RU", "ru"},
		{"kz", "kz"},
		// BCP 47 and ISO forms
		{"en-US", "en"},
		{"ru-RU", "ru"},
		{"kk", "kz"},
		{"kaz", "kz"},
		{"eng", "en"},
		// word forms
		{"Russian", "ru"},
		{" kazakh ", "kz"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeRejectsUnsupported(t *testing.T) {
	for _, input := range []string{"", " ", "fr", "de-DE"} {
		if _, err := Normalize(input); err == nil {
			t.Errorf("Normalize(%q) expected error", input)
		}
		if IsSupported(input) {
			t.Errorf("IsSupported(%q) = true, want false", input)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "English"},
		{"ru", "Russian"},
		{"kz", "Kazakh"},
		{"kk", "Kazakh"},
		{"", "Unknown"},
		{"fr", "FR"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := DisplayName(tt.input); got != tt.expected {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSpeechCode(t *testing.T) {
	tests := map[string]string{
		"kz": "kk",
		"en": "en",
		"ru": "ru",
		"FR": "fr",
	}
	for input, want := range tests {
		if got := SpeechCode(input); got != want {
			t.Errorf("SpeechCode(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSupportedOrder(t *testing.T) {
	got := Supported()
	want := []string{"en", "ru", "kz"}
	if len(got) != len(want) {
		t.Fatalf("Supported() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Supported()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if NativeName("en") == "" {
		t.Fatal("expected native name for en")
	}
}
