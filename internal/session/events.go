package session

// Sink delivers structured events to the connected client. Implementations
// serialize their own writes; events may be sent from multiple goroutines.
type Sink interface {
	Send(v any) error
}

// Wire events. []byte fields marshal to base64 strings.

type RecordingStarted struct {
	Type      string `json:"type"`
	SessionID int64  `json:"session_id"`
}

type RecordingStopped struct {
	Type      string  `json:"type"`
	Duration  float64 `json:"duration"`
	SessionID int64   `json:"session_id"`
	Reason    string  `json:"reason"`
}

type ReadyForNext struct {
	Type      string `json:"type"`
	SessionID int64  `json:"session_id"`
}

type ProcessingStarted struct {
	Type      string `json:"type"`
	SessionID int64  `json:"session_id"`
}

type Transcript struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	SessionID int64  `json:"session_id"`
}

type BotResponse struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	SessionID int64  `json:"session_id"`
}

type AudioResponse struct {
	Type      string `json:"type"`
	Data      []byte `json:"data"`
	SessionID int64  `json:"session_id"`
}

type AudioChunk struct {
	Type        string `json:"type"`
	Data        []byte `json:"data"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
	TextChunk   string `json:"text_chunk"`
}

type AudioComplete struct {
	Type string `json:"type"`
}

type NoSpeechDetected struct {
	Type      string `json:"type"`
	SessionID int64  `json:"session_id"`
}

type ProcessingError struct {
	Type      string `json:"type"`
	Error     string `json:"error"`
	SessionID int64  `json:"session_id"`
}

type ProcessingComplete struct {
	Type      string `json:"type"`
	SessionID int64  `json:"session_id"`
}

func newRecordingStarted(id int64) RecordingStarted {
	return RecordingStarted{Type: "recording_started", SessionID: id}
}

func newRecordingStopped(id int64, duration float64, reason string) RecordingStopped {
	return RecordingStopped{Type: "recording_stopped", Duration: duration, SessionID: id, Reason: reason}
}

func newReadyForNext(id int64) ReadyForNext {
	return ReadyForNext{Type: "ready_for_next", SessionID: id}
}

func newProcessingStarted(id int64) ProcessingStarted {
	return ProcessingStarted{Type: "processing_started", SessionID: id}
}

func newTranscript(id int64, text string) Transcript {
	return Transcript{Type: "transcript", Text: text, SessionID: id}
}

func newBotResponse(id int64, text string) BotResponse {
	return BotResponse{Type: "bot_response", Text: text, SessionID: id}
}

func newAudioResponse(id int64, data []byte) AudioResponse {
	return AudioResponse{Type: "audio_response", Data: data, SessionID: id}
}

// NewAudioChunk is exported for the streaming websocket path, which shares
// the wire shape with per-window synthesis.
func NewAudioChunk(data []byte, index, total int, text string) AudioChunk {
	return AudioChunk{Type: "audio_chunk", Data: data, ChunkIndex: index, TotalChunks: total, TextChunk: text}
}

func NewAudioComplete() AudioComplete {
	return AudioComplete{Type: "audio_complete"}
}

func newNoSpeechDetected(id int64) NoSpeechDetected {
	return NoSpeechDetected{Type: "no_speech_detected", SessionID: id}
}

func newProcessingError(id int64, msg string) ProcessingError {
	return ProcessingError{Type: "processing_error", Error: msg, SessionID: id}
}

func newProcessingComplete(id int64) ProcessingComplete {
	return ProcessingComplete{Type: "processing_complete", SessionID: id}
}
