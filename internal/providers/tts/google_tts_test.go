package tts

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestVoiceLanguage(t *testing.T) {
	tests := map[string]string{
		"hi":    "hi-IN",
		"EN":    "en-US",
		"":      "en-US",
		"fr-CA": "fr-CA",
		"de":    "de",
	}
	for in, want := range tests {
		if got := VoiceLanguage(in); got != want {
			t.Errorf("VoiceLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitBytes(t *testing.T) {
	text := strings.Repeat("नमस्ते दुनिया। ", 40)
	parts := splitBytes(text, 200)
	if len(parts) < 2 {
		t.Fatalf("expected several parts, got %d", len(parts))
	}
	for _, p := range parts {
		if len(p) > 200 {
			t.Fatalf("part of %d bytes", len(p))
		}
		if !utf8.ValidString(p) {
			t.Fatalf("part split inside a rune: %q", p)
		}
	}
	if got := strings.Join(parts, " "); strings.Join(strings.Fields(got), " ") != strings.Join(strings.Fields(text), " ") {
		t.Fatal("text lost while splitting")
	}
}

func TestSplitBytesShortText(t *testing.T) {
	if parts := splitBytes(" hello ", 100); len(parts) != 1 || parts[0] != "hello" {
		t.Fatalf("parts = %q", parts)
	}
}
