// Package synth turns reply text into audio, cache-first, in whole or as
// parallel streaming chunks.
package synth

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/voicedesk/voicedesk/internal/cache"
	"github.com/voicedesk/voicedesk/internal/providers/tts"
	"github.com/voicedesk/voicedesk/internal/textnorm"
)

const defaultChunkSize = 150

// Chunk is one independently synthesized segment of a streamed reply.
// Index and Total let the receiver reorder completion-ordered chunks.
type Chunk struct {
	Data  []byte
	Index int
	Total int
	Text  string
}

type Dispatcher struct {
	tts   tts.Synthesizer
	cache cache.AudioCache
	log   *logrus.Logger

	// ChunkSize bounds each streaming segment; segments this small stay
	// well under the provider's input limit.
	ChunkSize int
}

func NewDispatcher(synth tts.Synthesizer, audioCache cache.AudioCache, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		tts:       synth,
		cache:     audioCache,
		log:       log,
		ChunkSize: defaultChunkSize,
	}
}

// Synthesize returns audio for text, consulting the cache before calling the
// provider. A provider failure is returned to the caller; it decides the
// fallback.
func (d *Dispatcher) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if audio, ok := d.cache.Lookup(ctx, text); ok {
		return audio, nil
	}

	audio, err := d.tts.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}

	d.cache.Store(ctx, text, audio)
	return audio, nil
}

// SynthesizeStream splits text into sentence-aligned chunks, synthesizes
// them concurrently, and emits each as it completes (completion order, not
// index order). A failed chunk is logged and skipped without disturbing its
// siblings; every chunk produces exactly one completion, emitted or skipped.
// When emit fails the remaining workers are still drained, so none leak.
func (d *Dispatcher) SynthesizeStream(ctx context.Context, text string, emit func(Chunk) error) error {
	size := d.ChunkSize
	if size <= 0 {
		size = defaultChunkSize
	}
	chunks := textnorm.SplitChunks(text, size)

	type result struct {
		index int
		text  string
		data  []byte
	}

	results := make(chan result, len(chunks))
	for i, c := range chunks {
		go func(index int, chunkText string) {
			data, err := d.Synthesize(ctx, chunkText)
			if err != nil {
				d.log.WithError(err).WithField("chunk_index", index).Warn("chunk synthesis failed, skipping")
				data = nil
			}
			results <- result{index: index, text: chunkText, data: data}
		}(i, c)
	}

	var emitErr error
	for range chunks {
		r := <-results
		if r.data == nil || emitErr != nil {
			continue
		}
		if err := emit(Chunk{Data: r.data, Index: r.index, Total: len(chunks), Text: r.text}); err != nil {
			emitErr = err
		}
	}
	return emitErr
}
