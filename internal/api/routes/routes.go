package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/voicedesk/voicedesk/internal/api/handlers"
	"github.com/voicedesk/voicedesk/internal/api/middleware"
)

type Deps struct {
	Voice  *handlers.VoiceHandler
	WS     *handlers.WSHandler
	Logger *logrus.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))
	r.Use(middleware.RequestLogger(d.Logger))

	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/", d.Voice.Info)

	r.POST("/stt", d.Voice.STT)
	r.POST("/tts", d.Voice.TTS)
	r.POST("/relay-message", d.Voice.RelayMessage)
	r.GET("/session-ephemeral", d.Voice.SessionEphemeral)
	r.POST("/voice-chat", d.Voice.VoiceChat)

	// WebSocket
	r.GET("/ws/voice-realtime", d.WS.VoiceRealtime)
	r.GET("/ws/voice-stream", d.WS.VoiceStream)
	r.GET("/ws/chat/:bot_id", d.WS.Chat)
}
