package voice

import (
	"regexp"
	"strings"
)

// maxSpeechLength bounds the cleaned text so narration never runs for
// minutes on a long reply.
const maxSpeechLength = 500

// Markdown and symbol stripping for speech. Order matters: markup is
// unwrapped before the symbol filter so link labels and emphasised words
// survive.
var (
	boldRe       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe     = regexp.MustCompile(`\*(.*?)\*`)
	codeRe       = regexp.MustCompile("`(.*?)`")
	headerRe     = regexp.MustCompile(`#{1,6}\s`)
	linkRe       = regexp.MustCompile(`\[(.*?)\]\(.*?\)`)
	blockquoteRe = regexp.MustCompile(`>\s`)

	// nonSpeechRe drops emoji and any other symbol that does not read well.
	// \w is ASCII in RE2, which is exactly the filter we want here.
	nonSpeechRe  = regexp.MustCompile(`[^\w\s.,!?;:()]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// CleanTextForSpeech strips markup, emoji, and non-speech symbols from text,
// collapses whitespace, and truncates to a bounded length with an ellipsis
// marker. Returns "" when nothing speakable remains.
func CleanTextForSpeech(text string) string {
	if text == "" {
		return ""
	}

	clean := boldRe.ReplaceAllString(text, "$1")
	clean = italicRe.ReplaceAllString(clean, "$1")
	clean = codeRe.ReplaceAllString(clean, "$1")
	clean = headerRe.ReplaceAllString(clean, "")
	clean = linkRe.ReplaceAllString(clean, "$1")
	clean = blockquoteRe.ReplaceAllString(clean, "")

	clean = nonSpeechRe.ReplaceAllString(clean, " ")
	clean = whitespaceRe.ReplaceAllString(clean, " ")
	clean = strings.TrimSpace(clean)

	if len(clean) > maxSpeechLength {
		clean = clean[:maxSpeechLength] + "..."
	}
	return clean
}
