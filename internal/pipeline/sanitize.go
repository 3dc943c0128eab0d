package pipeline

import (
	"regexp"
	"strings"
)

// Replies are written for a screen; the synthesizer needs plain speech. These
// patterns strip presentation markup in place, keeping the inner content of
// emphasis spans and dropping everything purely decorative.
var (
	boldRe       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe     = regexp.MustCompile(`\*(.*?)\*`)
	underscoreRe = regexp.MustCompile(`_([^_]+)_`)
	inlineCodeRe = regexp.MustCompile("`(.*?)`")

	bulletRe      = regexp.MustCompile(`(?m)^\s*[-•*]+\s*`)
	numberedRe    = regexp.MustCompile(`(?m)^\s*\d+[.)\-]+\s*`)

	emojiRe = regexp.MustCompile(`[` +
		`\x{1F600}-\x{1F64F}` + // emoticons
		`\x{1F300}-\x{1F5FF}` + // symbols & pictographs
		`\x{1F680}-\x{1F6FF}` + // transport & map symbols
		`\x{1F1E0}-\x{1F1FF}` + // regional indicators (flags)
		`\x{2600}-\x{26FF}` + // miscellaneous symbols
		`\x{2700}-\x{27BF}` + // dingbats
		`\x{FE0F}` + // variation selector
		`]+`)
	glyphRe = regexp.MustCompile(`[•▪✔✖➡★☆→←↑↓◆■«»“”]`)

	newlineRunRe    = regexp.MustCompile(`\n+`)
	whitespaceRunRe = regexp.MustCompile(`\s+`)
)

// Sanitize strips markup, emoji and decorative glyphs from generated text so
// it can be spoken. Pure and idempotent: Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(text string) string {
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = underscoreRe.ReplaceAllString(text, "$1")
	text = inlineCodeRe.ReplaceAllString(text, "$1")

	text = bulletRe.ReplaceAllString(text, "")
	text = numberedRe.ReplaceAllString(text, "")

	text = emojiRe.ReplaceAllString(text, "")
	text = glyphRe.ReplaceAllString(text, "")

	text = newlineRunRe.ReplaceAllString(text, " ")
	text = whitespaceRunRe.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}
