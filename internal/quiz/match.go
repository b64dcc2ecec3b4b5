package quiz

import (
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/talkify-cu/talkify/internal/api"
)

// matchThreshold is the minimum Jaro-Winkler similarity for a typed answer
// to snap to an option label.
const matchThreshold = 0.85

// MatchAnswer maps a typed answer onto the question's canonical option label
// when one matches closely enough, so the backend sees the exact option text
// it offered. Open-ended questions and unmatched input pass through
// unchanged.
func MatchAnswer(input string, q api.Question) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return input
	}

	var options []string
	switch q.Type {
	case api.TypeMultipleChoice, api.TypeRatingScale:
		options = q.Options
	case api.TypeYesNo:
		options = q.Options
		if len(options) == 0 {
			options = []string{"Yes", "No"}
		}
	default:
		return trimmed
	}

	lower := strings.ToLower(trimmed)

	// Exact and prefix matches win before fuzzy scoring.
	for _, opt := range options {
		if strings.ToLower(opt) == lower {
			return opt
		}
	}
	for _, opt := range options {
		if strings.HasPrefix(strings.ToLower(opt), lower) {
			return opt
		}
	}

	best := ""
	bestScore := 0.0
	for _, opt := range options {
		score := matchr.JaroWinkler(lower, strings.ToLower(opt), false)
		if score > bestScore {
			best, bestScore = opt, score
		}
	}
	if bestScore >= matchThreshold {
		return best
	}
	return trimmed
}
