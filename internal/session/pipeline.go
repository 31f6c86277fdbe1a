package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/voicedesk/voicedesk/internal/providers/stt"
	"github.com/voicedesk/voicedesk/internal/relay"
	"github.com/voicedesk/voicedesk/internal/synth"
	"github.com/voicedesk/voicedesk/internal/textnorm"
)

// Pipeline processes one completed capture window: transcription, chat
// relay, then speech synthesis, with each stage's events streamed to the
// client as they happen. Shared across windows of one connection.
type Pipeline struct {
	STT   stt.Provider
	Relay *relay.Relay
	Synth *synth.Dispatcher

	BotID     string
	MaxTTSLen int

	Log *logrus.Entry
}

// Run executes the pipeline for one recording. It runs independently of the
// next capture window and never reports failure to its caller: anything that
// goes wrong becomes a processing_error event and the session stays usable.
func (p *Pipeline) Run(ctx context.Context, sessionID int64, audio []byte, sink Sink) {
	log := p.Log.WithField("session_id", sessionID)

	send := func(v any) {
		if err := sink.Send(v); err != nil {
			log.WithError(err).Debug("event send failed")
		}
	}

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("pipeline panicked")
			send(newProcessingError(sessionID, fmt.Sprintf("internal error: %v", r)))
		}
	}()

	send(newProcessingStarted(sessionID))

	format := stt.DetectFormat(audio)
	transcript, err := p.STT.Transcribe(ctx, audio, format)
	if err != nil {
		log.WithError(err).Error("transcription failed")
		send(newProcessingError(sessionID, "transcription failed"))
		return
	}

	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		log.Info("no speech detected")
		send(newNoSpeechDetected(sessionID))
		send(newProcessingComplete(sessionID))
		return
	}

	log.WithField("transcript", transcript).Info("transcript ready")
	send(newTranscript(sessionID, transcript))

	reply := p.Relay.Reply(ctx, transcript, p.BotID)
	send(newBotResponse(sessionID, reply))

	speakable := textnorm.Bound(textnorm.Normalize(reply), p.MaxTTSLen)

	// Audio is best-effort; the client already has the reply text.
	if audioOut, err := p.Synth.Synthesize(ctx, speakable); err != nil {
		log.WithError(err).Warn("speech synthesis failed, sending text only")
	} else {
		send(newAudioResponse(sessionID, audioOut))
	}

	send(newProcessingComplete(sessionID))
}
