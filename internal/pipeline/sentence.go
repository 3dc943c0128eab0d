package pipeline

import "strings"

var sentenceEnders = map[rune]bool{'.': true, '!': true, '?': true}

// Segment splits sanitized text into ordered, non-empty sentences. A boundary
// is assumed after every sentence ender, so punctuation glued to the next
// word ("fim.Começo") still splits. Purely punctuation-driven: abbreviations
// and quotations are not special-cased.
func Segment(text string) []string {
	var sentences []string
	var b strings.Builder

	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			sentences = append(sentences, s)
		}
		b.Reset()
	}

	for _, r := range text {
		b.WriteRune(r)
		if sentenceEnders[r] {
			flush()
		}
	}
	flush()

	return sentences
}
