package tts

import "context"

// Synthesizer converts a bounded text string into an audio payload.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Close() error
}
