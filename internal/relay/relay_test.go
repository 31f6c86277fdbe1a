package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
)

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestRelay(url string) *Relay {
	return New(NewRegistry(nil, url), http.DefaultClient, newTestLogger())
}

func TestCannedReplySkipsBackend(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"response":"from backend"}`))
	}))
	defer srv.Close()

	r := newTestRelay(srv.URL)
	got := r.Reply(context.Background(), "hello", "default")

	if got != "Hello! How can I help you today?" {
		t.Fatalf("expected canned greeting, got %q", got)
	}
	if calls.Load() != 0 {
		t.Fatalf("canned reply must not call the backend, saw %d calls", calls.Load())
	}
}

func TestHoursFallbackWhenBackendDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	r := newTestRelay(srv.URL)
	got := r.Reply(context.Background(), "what are your office hours", "default")

	if got != fallbackHours {
		t.Fatalf("expected hours fallback, got %q", got)
	}
}

func TestGenericFallbackWhenBackendDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	r := newTestRelay(srv.URL)
	got := r.Reply(context.Background(), "tell me about your doctors", "default")

	if got != fallbackGeneric {
		t.Fatalf("expected generic fallback, got %q", got)
	}
}

func TestReplyFieldPrecedence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"primary","answer":"secondary"}`))
	}))
	defer srv.Close()

	r := newTestRelay(srv.URL)
	if got := r.Reply(context.Background(), "what services do you offer", "default"); got != "primary" {
		t.Fatalf("response field must win, got %q", got)
	}
}

func TestAnswerFieldAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"answer":"alternate shape"}`))
	}))
	defer srv.Close()

	r := newTestRelay(srv.URL)
	if got := r.Reply(context.Background(), "describe your services", "default"); got != "alternate shape" {
		t.Fatalf("answer field must be accepted, got %q", got)
	}
}

func TestRetryCarriesSessionToken(t *testing.T) {
	var calls atomic.Int64
	var retryPayload struct {
		Message   string `json:"message"`
		SessionID string `json:"session_id"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		if n == 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_ = json.Unmarshal(body, &retryPayload)
		w.Write([]byte(`{"response":"second time lucky"}`))
	}))
	defer srv.Close()

	r := newTestRelay(srv.URL)
	got := r.Reply(context.Background(), "describe your specialties", "default")

	if got != "second time lucky" {
		t.Fatalf("expected retry reply, got %q", got)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected exactly one retry, saw %d calls", calls.Load())
	}
	if retryPayload.Message != "describe your specialties" {
		t.Fatalf("retry payload lost the message: %q", retryPayload.Message)
	}
	if len(retryPayload.SessionID) != 8 {
		t.Fatalf("retry payload must carry a short session token, got %q", retryPayload.SessionID)
	}
}

func TestUnknownBotUsesDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"default endpoint"}`))
	}))
	defer srv.Close()

	reg := NewRegistry(map[string]string{"known": "http://unused.invalid"}, srv.URL)
	r := New(reg, http.DefaultClient, newTestLogger())

	if got := r.Reply(context.Background(), "list your services", "no-such-bot"); got != "default endpoint" {
		t.Fatalf("unknown bot id must resolve to default, got %q", got)
	}
}
