package tts

// Model identifies a PlayAI TTS model family served by Groq.
type Model string

const (
	// ModelEnglish is the multi-voice English model family.
	ModelEnglish Model = "playai-tts"

	// ModelArabic is the Arabic model family.
	ModelArabic Model = "playai-tts-arabic"
)

// IsValid reports whether m is a recognised model.
func (m Model) IsValid() bool {
	return m == ModelEnglish || m == ModelArabic
}

// Other returns the opposite model family. Unknown models map to English.
func (m Model) Other() Model {
	if m == ModelEnglish {
		return ModelArabic
	}
	return ModelEnglish
}

// englishVoices is the PlayAI English voice catalogue.
var englishVoices = []string{
	"Arista-PlayAI", "Atlas-PlayAI", "Basil-PlayAI", "Briggs-PlayAI",
	"Calum-PlayAI", "Celeste-PlayAI", "Cheyenne-PlayAI", "Chip-PlayAI",
	"Cillian-PlayAI", "Deedee-PlayAI", "Fritz-PlayAI", "Gail-PlayAI",
	"Indigo-PlayAI", "Mamaw-PlayAI", "Mason-PlayAI", "Mikail-PlayAI",
	"Mitch-PlayAI", "Quinn-PlayAI", "Ruby-PlayAI", "Thunder-PlayAI",
}

// arabicVoices is the PlayAI Arabic voice catalogue.
var arabicVoices = []string{
	"Ahmad-PlayAI", "Amira-PlayAI", "Khalid-PlayAI", "Nasser-PlayAI",
}

// Voices returns the voice identifiers available for model. The slice is a
// copy; callers may modify it.
func Voices(model Model) []string {
	var src []string
	switch model {
	case ModelArabic:
		src = arabicVoices
	default:
		src = englishVoices
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// DefaultVoice returns the default voice for model.
func DefaultVoice(model Model) string {
	if model == ModelArabic {
		return "Amira-PlayAI"
	}
	return "Ruby-PlayAI"
}

// ValidVoice reports whether voice belongs to model's voice set.
func ValidVoice(model Model, voice string) bool {
	for _, v := range Voices(model) {
		if v == voice {
			return true
		}
	}
	return false
}
