package pipeline

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrSessionNotReady is returned when a turn arrives before the
	// conversation session has been initialized.
	ErrSessionNotReady = errors.New("session not ready")

	// ErrUpstreamTimeout wraps deadline expiries on transcription,
	// generation and synthesis calls.
	ErrUpstreamTimeout = errors.New("upstream timeout")
)

// upstreamErr wraps a failed collaborator call, translating deadline expiry
// into the timeout sentinel so callers can distinguish it from hard failures.
func upstreamErr(stage string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", stage, ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%s: %w", stage, err)
}
