package pipeline

import "strings"

// replyBuffer accumulates streamed fragments into one complete reply. Each
// in-flight turn owns its own buffer, never shared process-wide, so
// concurrent turns cannot interleave each other's replies.
type replyBuffer struct {
	buf strings.Builder
}

// Reset clears residual content. Called on the backend's turn-start signal.
func (r *replyBuffer) Reset() {
	r.buf.Reset()
}

// Append concatenates one fragment, strictly in delivery order.
func (r *replyBuffer) Append(fragment string) {
	r.buf.WriteString(fragment)
}

// Text returns the accumulated reply, trimmed.
func (r *replyBuffer) Text() string {
	return strings.TrimSpace(r.buf.String())
}
