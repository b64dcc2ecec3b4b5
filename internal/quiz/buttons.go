package quiz

import "github.com/talkify-cu/talkify/internal/api"

// Button is a selectable quick answer rendered for the current question.
// Action is the answer text actually submitted; Label is the short display
// form, which can differ for open-ended suggestions.
type Button struct {
	ID     int
	Label  string
	Icon   string
	Action string
}

// optionIcons decorate multiple-choice options in order.
var optionIcons = []string{"🎯", "📚", "⭐", "🎤", "💼", "🌟", "🔬", "💻", "🎨", "📊"}

// ratingIcons decorate rating-scale options by position.
var ratingIcons = []string{"⭐", "⭐⭐", "⭐⭐⭐", "⭐⭐⭐⭐", "⭐⭐⭐⭐⭐"}

// openEndedSuggestions are the canned quick answers offered for open-ended
// questions, so a user can tap instead of typing.
var openEndedSuggestions = []Button{
	{ID: 1, Label: "Creative Fields", Icon: "🎨", Action: "I'm interested in creative fields like design, arts, or media"},
	{ID: 2, Label: "Technology", Icon: "💻", Action: "I'm passionate about technology and programming"},
	{ID: 3, Label: "Business", Icon: "💼", Action: "I want to work in business, management, or entrepreneurship"},
	{ID: 4, Label: "Science", Icon: "🔬", Action: "I enjoy science, research, and analytical work"},
	{ID: 5, Label: "Other", Icon: "🌟", Action: "I have different interests or want to explore various options"},
}

// FormatQuestionAsButtons converts a question into its quick-answer buttons.
// Unknown question types yield no buttons.
func FormatQuestionAsButtons(q api.Question) []Button {
	switch q.Type {
	case api.TypeMultipleChoice:
		buttons := make([]Button, 0, len(q.Options))
		for i, opt := range q.Options {
			buttons = append(buttons, Button{
				ID:     i + 1,
				Label:  opt,
				Icon:   iconForOption(i),
				Action: opt,
			})
		}
		return buttons

	case api.TypeRatingScale:
		buttons := make([]Button, 0, len(q.Options))
		for i, opt := range q.Options {
			buttons = append(buttons, Button{
				ID:     i + 1,
				Label:  opt,
				Icon:   ratingIcon(i),
				Action: opt,
			})
		}
		return buttons

	case api.TypeYesNo:
		return []Button{
			{ID: 1, Label: "Yes", Icon: "✅", Action: "Yes"},
			{ID: 2, Label: "No", Icon: "❌", Action: "No"},
		}

	case api.TypeOpenEnded:
		out := make([]Button, len(openEndedSuggestions))
		copy(out, openEndedSuggestions)
		return out

	default:
		return nil
	}
}

func iconForOption(index int) string {
	if index < len(optionIcons) {
		return optionIcons[index]
	}
	return "🔸"
}

func ratingIcon(index int) string {
	if index < len(ratingIcons) {
		return ratingIcons[index]
	}
	return "⭐"
}
