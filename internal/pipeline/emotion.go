package pipeline

import (
	"regexp"
	"strconv"
	"strings"
)

// Emotion is the per-sentence animation code sent to the avatar frontend.
type Emotion int

const (
	Neutral Emotion = 0
	Happy   Emotion = 1
	Sad     Emotion = 2
)

// String returns the label used in logs and metrics.
func (e Emotion) String() string {
	switch e {
	case Happy:
		return "happy"
	case Sad:
		return "sad"
	default:
		return "neutral"
	}
}

// ScoredSentence pairs one sentence with its emotion code, in reply order.
type ScoredSentence struct {
	Text string
	Code Emotion
}

// Word stems (European Portuguese) matched as prefixes, so inflected and
// derived forms count too ("maravilhos" matches "maravilhoso"/"maravilhosa").
// The lists are fixture data: changing them invalidates the scorer tests.
var happyStems = []string{
	"feliz", "content", "alegre", "maravilhos", "lind", "ador", "fantástic",
	"important", "conquista", "orgulho", "voz", "inpira", "prémio", "aplauso",
	"música", "cultura", "fado", "história", "tradição", "amor", "coração",
	"emoção",
}

var sadStems = []string{
	"triste", "lament", "infeliz", "pena", "chorar", "saudade", "faleceu",
	"morreu", "desaparec", "perd", "solidão", "dor", "sofrer", "desilusão",
	"desapont", "tristeza", "luto", "memória", "complicad", "difícil",
	"desgosto", "desaparecimento", "perda", "vazio", "melancolia",
}

var (
	happyRes = compileStems(happyStems)
	sadRes   = compileStems(sadStems)
)

// compileStems builds one matcher per stem. RE2's \b and \w are ASCII-only:
// a boundary also fires right after an accented rune, so a stem glued to a
// preceding accented word still counts. The stem lists tolerate that; none
// begins mid-word in normal Portuguese text.
func compileStems(stems []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(stems))
	for i, stem := range stems {
		res[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(stem) + `\w*`)
	}
	return res
}

// Score classifies one sentence. Each stem contributes its count of
// non-overlapping word-boundary prefix matches, case-insensitively. Ties with
// both scores positive resolve to Sad; only a 0/0 result is Neutral.
func Score(sentence string) Emotion {
	lower := strings.ToLower(sentence)

	var happy, sad int
	for _, re := range happyRes {
		happy += len(re.FindAllStringIndex(lower, -1))
	}
	for _, re := range sadRes {
		sad += len(re.FindAllStringIndex(lower, -1))
	}

	switch {
	case happy == 0 && sad == 0:
		return Neutral
	case happy > sad:
		return Happy
	default:
		return Sad
	}
}

// ScoreSentences segments text and scores every sentence in order. The result
// order is meaningful: it time-aligns avatar expressions with audio playback.
func ScoreSentences(text string) []ScoredSentence {
	sentences := Segment(text)
	scored := make([]ScoredSentence, 0, len(sentences))
	for _, s := range sentences {
		scored = append(scored, ScoredSentence{Text: s, Code: Score(s)})
	}
	return scored
}

// FormatEmotionCodes renders codes as the comma-separated header value
// ("0,1,2"). An empty slice renders as a single neutral code so the header
// is never empty on a successful response.
func FormatEmotionCodes(codes []Emotion) string {
	if len(codes) == 0 {
		return "0"
	}
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = strconv.Itoa(int(c))
	}
	return strings.Join(parts, ",")
}
