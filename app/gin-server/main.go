package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/voicedesk/voicedesk/config"
	"github.com/voicedesk/voicedesk/internal/api/handlers"
	"github.com/voicedesk/voicedesk/internal/api/routes"
	"github.com/voicedesk/voicedesk/internal/cache"
	"github.com/voicedesk/voicedesk/internal/logger"
	"github.com/voicedesk/voicedesk/internal/providers/realtime"
	"github.com/voicedesk/voicedesk/internal/providers/stt"
	"github.com/voicedesk/voicedesk/internal/providers/tts"
	"github.com/voicedesk/voicedesk/internal/relay"
	"github.com/voicedesk/voicedesk/internal/synth"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config load failed")
	}

	// One pooled client for every collaborator call; limits mirror the
	// frontends this serves (few concurrent sessions, chatty requests).
	collaborators := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 5,
			MaxConnsPerHost:     20,
			DialContext:         (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		},
	}

	var audioCache cache.AudioCache
	if cfg.RedisAddr != "" {
		rdb, err := config.NewRedis(context.Background(), cfg.RedisAddr)
		if err != nil {
			log.WithError(err).Fatal("redis init failed")
		}
		defer rdb.Close()
		audioCache = cache.NewRedis(rdb, cfg.CacheTTL, log)
		log.Info("redis audio cache connected")
	} else {
		audioCache = cache.NewMemory(cfg.CacheMaxSize, cfg.CacheTTL)
		log.WithField("max_size", cfg.CacheMaxSize).Info("in-memory audio cache ready")
	}

	var transcriber stt.Provider
	switch cfg.STTProvider {
	case "google":
		g, err := stt.NewGoogleSpeech(context.Background())
		if err != nil {
			log.WithError(err).Fatal("google speech init failed")
		}
		transcriber = g
	default:
		transcriber = stt.NewOpenAIWhisper(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.WhisperModel, collaborators)
	}
	defer transcriber.Close()

	synthesizer := tts.NewOpenAISpeech(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.TTSModel, cfg.TTSVoice, collaborators)
	defer synthesizer.Close()

	dispatcher := synth.NewDispatcher(synthesizer, audioCache, log)
	dispatcher.ChunkSize = cfg.ChunkSize

	chatRelay := relay.New(relay.NewRegistry(cfg.Bots, cfg.DefaultBotURL), collaborators, log)
	rt := realtime.NewClient(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.RealtimeModel, cfg.RealtimeVoice, collaborators)

	r := gin.New()
	r.Use(gin.Recovery())

	routes.RegisterRoutes(r, routes.Deps{
		Voice:  handlers.NewVoiceHandler(transcriber, chatRelay, dispatcher, rt, audioCache, cfg.MaxTTSLength, log),
		WS:     handlers.NewWSHandler(transcriber, chatRelay, dispatcher, cfg.AutoStop, cfg.MaxTTSLength, log),
		Logger: log,
	})

	log.WithField("port", cfg.Port).Info("voicedesk listening")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}
