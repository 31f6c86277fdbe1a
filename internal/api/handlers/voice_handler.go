package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/voicedesk/voicedesk/internal/cache"
	"github.com/voicedesk/voicedesk/internal/providers/realtime"
	"github.com/voicedesk/voicedesk/internal/providers/stt"
	"github.com/voicedesk/voicedesk/internal/relay"
	"github.com/voicedesk/voicedesk/internal/synth"
	"github.com/voicedesk/voicedesk/internal/textnorm"
	"github.com/voicedesk/voicedesk/internal/utils"
)

const maxUploadBytes = 10 << 20

// VoiceHandler serves the thin call-and-return endpoints around the
// realtime pipeline: transcription, synthesis, relay, and token minting.
type VoiceHandler struct {
	stt       stt.Provider
	relay     *relay.Relay
	synth     *synth.Dispatcher
	realtime  *realtime.Client
	cache     cache.AudioCache
	maxTTSLen int
	log       *logrus.Logger
}

func NewVoiceHandler(sttProvider stt.Provider, chatRelay *relay.Relay, dispatcher *synth.Dispatcher, rt *realtime.Client, audioCache cache.AudioCache, maxTTSLen int, log *logrus.Logger) *VoiceHandler {
	return &VoiceHandler{
		stt:       sttProvider,
		relay:     chatRelay,
		synth:     dispatcher,
		realtime:  rt,
		cache:     audioCache,
		maxTTSLen: maxTTSLen,
		log:       log,
	}
}

func readUpload(c *gin.Context) ([]byte, error) {
	const op = "VoiceHandler.readUpload"

	fh, err := c.FormFile("file")
	if err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "audio file is required", err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to open upload", err)
	}
	defer f.Close()

	audio, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to read upload", err)
	}
	if len(audio) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "empty audio file", nil)
	}
	return audio, nil
}

// STT transcribes an uploaded recording.
func (h *VoiceHandler) STT(c *gin.Context) {
	audio, err := readUpload(c)
	if err != nil {
		writeError(c, err)
		return
	}

	text, err := h.stt.Transcribe(c.Request.Context(), audio, stt.DetectFormat(audio))
	if err != nil {
		h.log.WithError(err).Error("stt endpoint failed")
		writeError(c, utils.E(utils.CodeUnavailable, "VoiceHandler.STT", "transcription failed", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"text": text})
}

type ttsRequest struct {
	Text string `json:"text"`
}

// TTS synthesizes a normalized, bounded rendition of the posted text.
func (h *VoiceHandler) TTS(c *gin.Context) {
	const op = "VoiceHandler.TTS"

	var req ttsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid json body", err))
		return
	}

	speakable := textnorm.Bound(textnorm.Normalize(req.Text), h.maxTTSLen)

	audio, err := h.synth.Synthesize(c.Request.Context(), speakable)
	if err != nil {
		h.log.WithError(err).Error("tts endpoint failed")
		writeError(c, utils.E(utils.CodeUnavailable, op, "speech synthesis failed", err))
		return
	}

	c.Header("Content-Disposition", "attachment; filename=speech.mp3")
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

type relayRequest struct {
	Message string `json:"message" binding:"required"`
	BotID   string `json:"bot_id"`
}

// RelayMessage forwards one text message to the selected chat backend.
func (h *VoiceHandler) RelayMessage(c *gin.Context) {
	var req relayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "VoiceHandler.RelayMessage", "message is required", err))
		return
	}
	if req.BotID == "" {
		req.BotID = "default"
	}

	reply := h.relay.Reply(c.Request.Context(), req.Message, req.BotID)
	c.JSON(http.StatusOK, gin.H{"response": reply, "bot_id": req.BotID})
}

// SessionEphemeral mints an ephemeral realtime API token for the browser.
func (h *VoiceHandler) SessionEphemeral(c *gin.Context) {
	secret, err := h.realtime.CreateSession(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("ephemeral session failed")
		writeError(c, utils.E(utils.CodeUnavailable, "VoiceHandler.SessionEphemeral", "failed to create realtime session", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"client_secret": secret,
		"bot_id":        botID(c),
	})
}

// VoiceChat runs the whole pipeline over one uploaded recording: STT, chat
// relay, then TTS. The audio response carries the intermediate text in
// headers; a synthesis failure degrades to a JSON body with the text.
func (h *VoiceHandler) VoiceChat(c *gin.Context) {
	audio, err := readUpload(c)
	if err != nil {
		writeError(c, err)
		return
	}

	ctx := c.Request.Context()

	transcript, err := h.stt.Transcribe(ctx, audio, stt.DetectFormat(audio))
	if err != nil {
		h.log.WithError(err).Error("voice chat transcription failed")
		c.JSON(http.StatusOK, gin.H{
			"transcript": "",
			"response":   "I had trouble processing your request. Please try again.",
			"error":      "transcription failed",
		})
		return
	}

	reply := h.relay.Reply(ctx, transcript, botID(c))
	speakable := textnorm.Bound(textnorm.Normalize(reply), h.maxTTSLen)

	replyAudio, err := h.synth.Synthesize(ctx, speakable)
	if err != nil {
		h.log.WithError(err).Warn("voice chat synthesis failed, returning text")
		c.JSON(http.StatusOK, gin.H{
			"transcript":  transcript,
			"response":    speakable,
			"audio_error": "speech synthesis failed",
		})
		return
	}

	c.Header("X-Transcript", transcript)
	c.Header("X-Bot-Response", speakable)
	c.Data(http.StatusOK, "audio/mpeg", replyAudio)
}

// Info reports service status and limits.
func (h *VoiceHandler) Info(c *gin.Context) {
	cached := "n/a"
	if sized, ok := h.cache.(interface{ Len() int }); ok {
		cached = fmt.Sprintf("%d items cached", sized.Len())
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Voice backend service is running",
		"status":  "active",
		"optimizations": gin.H{
			"tts_cache":      cached,
			"max_tts_length": h.maxTTSLen,
		},
		"endpoints": gin.H{
			"voice_realtime": "/ws/voice-realtime",
			"voice_stream":   "/ws/voice-stream",
			"chat":           "/ws/chat/:bot_id",
			"voice_chat":     "/voice-chat",
			"stt":            "/stt",
			"tts":            "/tts",
			"relay":          "/relay-message",
		},
	})
}
