package quiz

import (
	"testing"

	"github.com/talkify-cu/talkify/internal/api"
)

func TestMatchAnswer(t *testing.T) {
	multi := api.Question{
		Type:    api.TypeMultipleChoice,
		Options: []string{"Technology", "Business", "Creative Arts"},
	}
	yesNo := api.Question{Type: api.TypeYesNo}
	open := api.Question{Type: api.TypeOpenEnded}

	tests := []struct {
		name  string
		input string
		q     api.Question
		want  string
	}{
		{"exact", "Technology", multi, "Technology"},
		{"case insensitive", "technology", multi, "Technology"},
		{"prefix", "tech", multi, "Technology"},
		{"typo snaps to option", "Tecnology", multi, "Technology"},
		{"close typo", "Technolgy", multi, "Technology"},
		{"unrelated passes through", "astronomy maybe", multi, "astronomy maybe"},
		{"yes no default options", "yes", yesNo, "Yes"},
		{"yes no typo", "yess", yesNo, "Yes"},
		{"open ended untouched", "I like dinosaurs", open, "I like dinosaurs"},
		{"whitespace trimmed", "  Business ", multi, "Business"},
		{"empty passes through", "", multi, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchAnswer(tt.input, tt.q); got != tt.want {
				t.Errorf("MatchAnswer(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
