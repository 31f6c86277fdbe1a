package stt

import (
	"bytes"
	"context"
)

// Provider transcribes one complete audio recording. The format hint names
// the container ("wav" or "webm") the recording arrived in.
type Provider interface {
	Transcribe(ctx context.Context, audio []byte, format string) (string, error)
	Close() error
}

var riffMagic = []byte("RIFF")

// DetectFormat sniffs the container from the recording's leading bytes.
// Browsers send either WAV or WebM/Opus; anything without a RIFF header is
// assumed to be the latter.
func DetectFormat(audio []byte) string {
	if len(audio) > 4 && bytes.HasPrefix(audio, riffMagic) {
		return "wav"
	}
	return "webm"
}
