package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/voicedesk/voicedesk/internal/providers/stt"
	"github.com/voicedesk/voicedesk/internal/relay"
	"github.com/voicedesk/voicedesk/internal/session"
	"github.com/voicedesk/voicedesk/internal/synth"
	"github.com/voicedesk/voicedesk/internal/textnorm"
)

const wsReadTimeout = 60 * time.Second

// WSHandler owns the duplex voice endpoints. Each connection gets its own
// session machinery; the only state shared across connections is the audio
// cache inside the dispatcher.
type WSHandler struct {
	stt       stt.Provider
	relay     *relay.Relay
	synth     *synth.Dispatcher
	autoStop  time.Duration
	maxTTSLen int
	log       *logrus.Logger
	upgrader  websocket.Upgrader
}

func NewWSHandler(sttProvider stt.Provider, chatRelay *relay.Relay, dispatcher *synth.Dispatcher, autoStop time.Duration, maxTTSLen int, log *logrus.Logger) *WSHandler {
	return &WSHandler{
		stt:       sttProvider,
		relay:     chatRelay,
		synth:     dispatcher,
		autoStop:  autoStop,
		maxTTSLen: maxTTSLen,
		log:       log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

// Send implements session.Sink: events go out as JSON text frames, writes
// serialized by the connection mutex.
func (w *wsConn) Send(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.writeText(b)
}

func (h *WSHandler) upgrade(c *gin.Context) (*wsConn, bool) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote the response in most cases
		return nil, false
	}

	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})
	return &wsConn{c: conn}, true
}

// VoiceRealtime is the capture-window endpoint: binary audio frames in,
// pipeline events out. The session machine owns all timing.
func (h *WSHandler) VoiceRealtime(c *gin.Context) {
	wc, ok := h.upgrade(c)
	if !ok {
		return
	}
	defer wc.c.Close()

	log := h.log.WithFields(logrus.Fields{"endpoint": "voice-realtime", "bot_id": botID(c)})

	pipe := &session.Pipeline{
		STT:       h.stt,
		Relay:     h.relay,
		Synth:     h.synth,
		BotID:     botID(c),
		MaxTTSLen: h.maxTTSLen,
		Log:       log,
	}

	m := session.NewMachine(wc, pipe, h.autoStop, log)
	defer m.Close()

	for {
		mt, data, err := wc.c.ReadMessage()
		if err != nil {
			return
		}
		_ = wc.c.SetReadDeadline(time.Now().Add(wsReadTimeout))

		if mt == websocket.BinaryMessage {
			m.Feed(data)
		}
	}
}

// VoiceStream treats every binary message as one complete utterance and
// streams the reply back as parallel TTS chunks.
func (h *WSHandler) VoiceStream(c *gin.Context) {
	wc, ok := h.upgrade(c)
	if !ok {
		return
	}
	defer wc.c.Close()

	bot := botID(c)
	log := h.log.WithFields(logrus.Fields{"endpoint": "voice-stream", "bot_id": bot})

	for {
		mt, data, err := wc.c.ReadMessage()
		if err != nil {
			return
		}
		_ = wc.c.SetReadDeadline(time.Now().Add(wsReadTimeout))

		if mt != websocket.BinaryMessage || len(data) == 0 {
			continue
		}

		transcript, err := h.stt.Transcribe(c.Request.Context(), data, stt.DetectFormat(data))
		if err != nil {
			log.WithError(err).Error("stream transcription failed")
			_ = wc.Send(map[string]any{"type": "error", "message": "transcription failed"})
			continue
		}
		transcript = strings.TrimSpace(transcript)
		if transcript == "" {
			_ = wc.Send(map[string]any{"type": "no_speech_detected"})
			continue
		}

		_ = wc.Send(map[string]any{"type": "transcript", "text": transcript})

		reply := h.relay.Reply(c.Request.Context(), transcript, bot)
		_ = wc.Send(map[string]any{"type": "bot_response", "text": reply})

		// Synthesis streams in the background so the next utterance can
		// start while chunks are still arriving.
		speakable := textnorm.Bound(textnorm.Normalize(reply), h.maxTTSLen)
		go func() {
			err := h.synth.SynthesizeStream(context.Background(), speakable, func(chunk synth.Chunk) error {
				return wc.Send(session.NewAudioChunk(chunk.Data, chunk.Index, chunk.Total, chunk.Text))
			})
			if err != nil {
				log.WithError(err).Debug("chunk delivery stopped")
				return
			}
			_ = wc.Send(session.NewAudioComplete())
		}()
	}
}

type chatClientMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Chat is the text-in voice-out endpoint: JSON messages in, reply text plus
// best-effort audio out.
func (h *WSHandler) Chat(c *gin.Context) {
	bot := c.Param("bot_id")
	if bot == "" {
		bot = "default"
	}

	wc, ok := h.upgrade(c)
	if !ok {
		return
	}
	defer wc.c.Close()

	log := h.log.WithFields(logrus.Fields{"endpoint": "chat", "bot_id": bot})

	for {
		_, data, err := wc.c.ReadMessage()
		if err != nil {
			return
		}
		_ = wc.c.SetReadDeadline(time.Now().Add(wsReadTimeout))

		var msg chatClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.Send(map[string]any{"type": "error", "message": "invalid json"})
			continue
		}
		if msg.Type != "message" || msg.Message == "" {
			_ = wc.Send(map[string]any{"type": "error", "message": "unknown message type"})
			continue
		}

		reply := h.relay.Reply(c.Request.Context(), msg.Message, bot)
		_ = wc.Send(map[string]any{"type": "text_response", "text": reply, "bot_id": bot})

		speakable := textnorm.Bound(textnorm.Normalize(reply), h.maxTTSLen)
		audio, err := h.synth.Synthesize(c.Request.Context(), speakable)
		if err != nil {
			log.WithError(err).Warn("chat synthesis failed, text only")
			continue
		}
		_ = wc.Send(map[string]any{"type": "audio_response", "data": audio, "bot_id": bot})
	}
}
