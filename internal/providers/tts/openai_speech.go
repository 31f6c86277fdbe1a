package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OpenAISpeech synthesizes MP3 audio via the OpenAI speech endpoint.
type OpenAISpeech struct {
	apiKey  string
	baseURL string
	model   string
	voice   string
	hc      *http.Client
}

func NewOpenAISpeech(apiKey, baseURL, model, voice string, hc *http.Client) *OpenAISpeech {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	if model == "" {
		model = "tts-1-hd"
	}
	if voice == "" {
		voice = "nova"
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &OpenAISpeech{apiKey: apiKey, baseURL: baseURL, model: model, voice: voice, hc: hc}
}

func (s *OpenAISpeech) Close() error { return nil }

func (s *OpenAISpeech) Synthesize(ctx context.Context, text string) ([]byte, error) {
	payload, _ := json.Marshal(map[string]any{
		"model": s.model,
		"voice": s.voice,
		"input": text,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/audio/speech", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("speech error %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return io.ReadAll(resp.Body)
}
