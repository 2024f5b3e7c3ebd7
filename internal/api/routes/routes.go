package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Phoenix-070/Edutranscribe/internal/api/handlers"
	"github.com/Phoenix-070/Edutranscribe/internal/api/middleware"
)

type Deps struct {
	Pipeline *handlers.PipelineHandler
	Papers   *handlers.PaperHandler
	Chat     *handlers.ChatHandler
	WS       *handlers.WSHandler

	Auth        middleware.AuthConfig
	CORSOrigins []string
	Logger      logrus.FieldLogger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	if d.Logger != nil {
		r.Use(middleware.RequestLogger(d.Logger))
	}
	if len(d.CORSOrigins) > 0 {
		r.Use(middleware.CORS(d.CORSOrigins))
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth(d.Auth), middleware.RequireRole(middleware.CallerRoles...))

	if d.Pipeline != nil {
		auth.POST("/transcribe", d.Pipeline.Transcribe)
		auth.POST("/summarize", d.Pipeline.Summarize)
		auth.POST("/translate", d.Pipeline.Translate)
		auth.POST("/gtts_speech", d.Pipeline.Speech)
	}

	if d.Papers != nil {
		auth.POST("/upload_paper", d.Papers.Upload)
		auth.GET("/list_uploaded_papers", d.Papers.List)
		auth.GET("/paper-summary", d.Papers.Summary)
	}

	if d.Chat != nil {
		auth.POST("/ask_question", d.Chat.Ask)
		auth.POST("/answer", d.Chat.Ask)
		auth.GET("/chat_history/:pdf_id", d.Chat.History)
	}

	// WebSocket
	if d.WS != nil {
		auth.GET("/ws/papers/:pdf_id", d.WS.PaperStatus)
	}
}
