package voice

import (
	"strings"
	"testing"
)

func TestCleanTextForSpeech(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "Hello there.", "Hello there."},
		{"bold unwrapped", "This is **important** news", "This is important news"},
		{"italic unwrapped", "a *subtle* hint", "a subtle hint"},
		{"code unwrapped", "run `go test` now", "run go test now"},
		{"header stripped", "## Heading\ntext", "Heading text"},
		{"link keeps label", "see [the docs](https://example.com) first", "see the docs first"},
		{"emoji removed", "Great job! 🎯🚀", "Great job!"},
		{"whitespace collapsed", "too   many\n\nspaces", "too many spaces"},
		{"empty", "", ""},
		{"only symbols", "🎯🚀⭐", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanTextForSpeech(tt.in); got != tt.want {
				t.Errorf("CleanTextForSpeech(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanTextForSpeechTruncates(t *testing.T) {
	long := strings.Repeat("word ", 200)
	got := CleanTextForSpeech(long)
	if len(got) != maxSpeechLength+3 {
		t.Fatalf("length %d, want %d", len(got), maxSpeechLength+3)
	}
	if !strings.HasSuffix(got, "...") {
		t.Error("truncated text must end with ellipsis")
	}
}
