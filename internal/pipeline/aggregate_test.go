package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplyBuffer(t *testing.T) {
	var buf replyBuffer

	t.Run("fragments concatenate in order", func(t *testing.T) {
		buf.Append("O fado ")
		buf.Append("nasceu ")
		buf.Append("em Lisboa.")
		assert.Equal(t, "O fado nasceu em Lisboa.", buf.Text())
	})

	t.Run("reset discards residual content", func(t *testing.T) {
		buf.Reset()
		buf.Append("Nova resposta.")
		assert.Equal(t, "Nova resposta.", buf.Text())
	})

	t.Run("text is trimmed", func(t *testing.T) {
		buf.Reset()
		buf.Append("  com espaços  ")
		assert.Equal(t, "com espaços", buf.Text())
	})

	t.Run("empty buffer", func(t *testing.T) {
		buf.Reset()
		assert.Equal(t, "", buf.Text())
	})
}
