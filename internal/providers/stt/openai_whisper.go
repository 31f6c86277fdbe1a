package stt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// OpenAIWhisper transcribes via the OpenAI audio transcriptions endpoint.
type OpenAIWhisper struct {
	apiKey  string
	baseURL string
	model   string
	hc      *http.Client
}

func NewOpenAIWhisper(apiKey, baseURL, model string, hc *http.Client) *OpenAIWhisper {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	if model == "" {
		model = "whisper-1"
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &OpenAIWhisper{apiKey: apiKey, baseURL: baseURL, model: model, hc: hc}
}

func (w *OpenAIWhisper) Close() error { return nil }

func (w *OpenAIWhisper) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	if format == "" {
		format = DetectFormat(audio)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	// The endpoint infers the codec from the uploaded filename extension,
	// so the container hint has to be carried there.
	part, err := mw.CreateFormFile("file", "audio."+format)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	_ = mw.WriteField("model", w.model)
	_ = mw.WriteField("response_format", "text")
	_ = mw.WriteField("language", "en")
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/v1/audio/transcriptions", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+w.apiKey)

	resp, err := w.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisper error %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	// response_format=text returns the transcript as a plain string body.
	return strings.TrimSpace(string(b)), nil
}
