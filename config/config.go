package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is read once from the environment at startup.
type Config struct {
	Port string

	OpenAIKey     string
	OpenAIBaseURL string

	STTProvider  string // "openai" or "google"
	WhisperModel string
	TTSModel     string
	TTSVoice     string

	RealtimeModel string
	RealtimeVoice string

	CacheMaxSize int
	CacheTTL     time.Duration
	MaxTTSLength int
	AutoStop     time.Duration
	ChunkSize    int

	Bots          map[string]string
	DefaultBotURL string

	RedisAddr string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:          getenv("PORT", "8090"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: getenv("OPENAI_BASE_URL", "https://api.openai.com"),
		STTProvider:   getenv("STT_PROVIDER", "openai"),
		WhisperModel:  getenv("WHISPER_MODEL", "whisper-1"),
		TTSModel:      getenv("TTS_MODEL", "tts-1-hd"),
		TTSVoice:      getenv("TTS_VOICE", "nova"),
		RealtimeModel: getenv("REALTIME_MODEL", "gpt-4o-realtime-preview-2024-10-01"),
		RealtimeVoice: getenv("REALTIME_VOICE", "nova"),
		CacheMaxSize:  getenvInt("CACHE_MAX_SIZE", 100),
		CacheTTL:      time.Duration(getenvInt("CACHE_TTL_SECONDS", 1296000)) * time.Second, // 15 days
		MaxTTSLength:  getenvInt("MAX_TTS_LENGTH", 2500),
		AutoStop:      time.Duration(getenvInt("AUTO_STOP_MS", 3000)) * time.Millisecond,
		ChunkSize:     getenvInt("TTS_CHUNK_SIZE", 150),
		DefaultBotURL: getenv("BOT_DEFAULT_URL", "http://localhost:8000/api/chat"),
		RedisAddr:     firstEnv("REDIS_ADDR", "REDIS_URI", "REDIS_URL"),
	}

	bots, err := parseBots(os.Getenv("CHATBOT_URLS"))
	if err != nil {
		return nil, err
	}
	cfg.Bots = bots

	if cfg.OpenAIKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable is not set")
	}
	if cfg.STTProvider != "openai" && cfg.STTProvider != "google" {
		return nil, errors.New("STT_PROVIDER must be 'openai' or 'google'")
	}
	return cfg, nil
}

// parseBots reads "id=url;id2=url2" pairs.
func parseBots(raw string) (map[string]string, error) {
	bots := make(map[string]string)
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, url, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(id) == "" || strings.TrimSpace(url) == "" {
			return nil, errors.New("CHATBOT_URLS entries must look like bot-id=http://host/api/chat")
		}
		bots[strings.TrimSpace(id)] = strings.TrimSpace(url)
	}
	return bots, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}
