package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	cases := []struct {
		name     string
		sentence string
		want     Emotion
	}{
		{"happy words win", "Que dia feliz e maravilhoso!", Happy},
		{"sad words win", "Senti uma grande tristeza e saudade.", Sad},
		{"no emotional words", "O concerto foi às 20h na sala principal.", Neutral},
		{"tie resolves to sad", "Estou feliz mas também triste.", Sad},
		{"case insensitive", "QUE DIA FELIZ E MARAVILHOSO!", Happy},
		{"stem matches inflected forms", "As canções mais lindas e adoráveis.", Happy},
		// ASCII word boundaries: a stem directly after an accented rune
		// still counts (see compileStems).
		{"boundary after accented rune", "nãofeliz", Happy},
		{"empty sentence", "", Neutral},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Score(tc.sentence))
		})
	}
}

func TestScoreSentencesOrder(t *testing.T) {
	text := "Que dia feliz! Depois veio a tristeza. O concerto começa agora."
	got := ScoreSentences(text)

	assert.Len(t, got, 3)
	assert.Equal(t, "Que dia feliz!", got[0].Text)
	assert.Equal(t, Happy, got[0].Code)
	assert.Equal(t, Sad, got[1].Code)
	assert.Equal(t, Neutral, got[2].Code)
}

func TestFormatEmotionCodes(t *testing.T) {
	assert.Equal(t, "1,2,0", FormatEmotionCodes([]Emotion{Happy, Sad, Neutral}))
	assert.Equal(t, "2", FormatEmotionCodes([]Emotion{Sad}))
	assert.Equal(t, "0", FormatEmotionCodes(nil), "empty input renders a single neutral code")
}

func TestEmotionString(t *testing.T) {
	assert.Equal(t, "happy", Happy.String())
	assert.Equal(t, "sad", Sad.String())
	assert.Equal(t, "neutral", Neutral.String())
}
