// Package realtime mints short-lived client tokens for the provider's
// realtime speech API, so browsers can connect to it directly.
package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type ClientSecret struct {
	Value     string `json:"value"`
	ExpiresAt int64  `json:"expires_at"`
}

type Client struct {
	apiKey  string
	baseURL string
	model   string
	voice   string
	hc      *http.Client
}

func NewClient(apiKey, baseURL, model, voice string, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	if model == "" {
		model = "gpt-4o-realtime-preview-2024-10-01"
	}
	if voice == "" {
		voice = "nova"
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{apiKey: apiKey, baseURL: baseURL, model: model, voice: voice, hc: hc}
}

// CreateSession asks the provider for an ephemeral session token.
func (c *Client) CreateSession(ctx context.Context) (*ClientSecret, error) {
	payload, _ := json.Marshal(map[string]any{
		"model": c.model,
		"voice": c.voice,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/realtime/sessions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("realtime session error %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out struct {
		ClientSecret ClientSecret `json:"client_secret"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	if out.ClientSecret.Value == "" {
		return nil, fmt.Errorf("realtime session response missing client_secret")
	}
	return &out.ClientSecret, nil
}
