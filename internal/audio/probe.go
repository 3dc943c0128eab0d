// Package audio inspects inbound payloads for diagnostics. The pipeline
// treats audio as opaque bytes; probing only feeds logs.
package audio

import (
	"bytes"
	"errors"
	"time"

	"github.com/go-audio/wav"
)

// Info describes a recognized WAV payload.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

// ProbeWAV reads the RIFF/WAVE header of data. Returns an error when the
// payload is not a parseable WAV file; callers treat that as non-fatal.
func ProbeWAV(data []byte) (*Info, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return nil, errors.New("not a wav payload")
	}
	dur, err := dec.Duration()
	if err != nil {
		dur = 0
	}
	return &Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		Duration:   dur,
	}, nil
}
