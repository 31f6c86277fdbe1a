// Package relay forwards user utterances to the configured chat backend and
// always produces usable reply text, no matter what the backend does.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type cannedReply struct {
	trigger string
	reply   string
}

// Ordered so that overlapping triggers resolve the same way every time.
var cannedReplies = []cannedReply{
	{"hello", "Hello! How can I help you today?"},
	{"hi", "Hi there! What can I do for you?"},
	{"thanks", "You're welcome!"},
	{"bye", "Goodbye! Have a great day!"},
}

const (
	fallbackHours       = "Our office hours are Monday to Friday 9 AM to 6 PM, and Saturday 9 AM to 2 PM. How can I help you?"
	fallbackAppointment = "I'd be happy to help you schedule an appointment. Please call us at 425-775-5162 or let me know your preferred date."
	fallbackHelp        = "I'm here to assist you. What can I help you with today?"
	fallbackGeneric     = "Thank you for your question. For detailed information, please call our office at 425-775-5162."
)

var (
	hoursWords       = []string{"office", "hours", "open", "time"}
	appointmentWords = []string{"appointment", "schedule", "book", "see"}
)

// Relay talks to per-bot chat backends over plain HTTP.
type Relay struct {
	registry *Registry
	hc       *http.Client
	log      *logrus.Logger
}

func New(registry *Registry, hc *http.Client, log *logrus.Logger) *Relay {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Relay{registry: registry, hc: hc, log: log}
}

// Reply resolves the utterance to reply text. It never returns an error:
// canned phrases answer without a network call, backend failures fall back
// to topic-based canned text.
func (r *Relay) Reply(ctx context.Context, message, botID string) string {
	lower := strings.ToLower(strings.TrimSpace(message))

	for _, c := range cannedReplies {
		if strings.Contains(lower, c.trigger) {
			return c.reply
		}
	}

	url := r.registry.Resolve(botID)
	log := r.log.WithFields(logrus.Fields{"bot_id": botID, "url": url})

	reply, ok, retryable := r.post(ctx, url, map[string]any{"message": message}, log)
	if ok {
		return reply
	}

	if retryable {
		// Some backends refuse requests without a session token; retry
		// once with a fresh short one. Transport failures skip the retry.
		sessionID := uuid.NewString()[:8]
		log.WithField("session_id", sessionID).Info("retrying chat backend with session token")
		if reply, ok, _ = r.post(ctx, url, map[string]any{"message": message, "session_id": sessionID}, log); ok {
			return reply
		}
	}

	return fallbackFor(lower)
}

func (r *Relay) post(ctx context.Context, url string, payload map[string]any, log *logrus.Entry) (reply string, ok, retryable bool) {
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.WithError(err).Warn("chat backend request build failed")
		return "", false, false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.hc.Do(req)
	if err != nil {
		log.WithError(err).Warn("chat backend unreachable")
		return "", false, false
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		log.WithError(err).Warn("chat backend body read failed")
		return "", false, false
	}
	if resp.StatusCode != http.StatusOK {
		log.WithField("status", resp.StatusCode).Warn("chat backend non-200")
		return "", false, true
	}

	reply, ok = decodeReply(b)
	if !ok {
		log.Warn("chat backend response carried no reply field")
	}
	return reply, ok, !ok
}

// decodeReply tolerates the two reply shapes backends use: {"response": ...}
// and {"answer": ...}. The former wins when both are present.
func decodeReply(body []byte) (string, bool) {
	var out struct {
		Response *string `json:"response"`
		Answer   *string `json:"answer"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", false
	}
	if out.Response != nil && *out.Response != "" {
		return *out.Response, true
	}
	if out.Answer != nil && *out.Answer != "" {
		return *out.Answer, true
	}
	return "", false
}

func fallbackFor(lower string) string {
	switch {
	case containsAny(lower, hoursWords):
		return fallbackHours
	case containsAny(lower, appointmentWords):
		return fallbackAppointment
	case strings.Contains(lower, "help"):
		return fallbackHelp
	default:
		return fallbackGeneric
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
