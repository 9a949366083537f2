package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/engunity-ai/engunity/internal/config"
	"github.com/engunity-ai/engunity/internal/middleware"
	"github.com/engunity-ai/engunity/internal/modules/handler"
	"github.com/engunity-ai/engunity/internal/modules/serializer"
)

type RouterDeps struct {
	Config          *config.Config
	Log             *zap.Logger
	DocumentHandler *handler.DocumentHandler
	ChatHandler     *handler.ChatHandler
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.ZapLogger(d.Log))

	// health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, serializer.Response{Msg: "ok"}) })

	v1 := r.Group("/api/v1")
	{
		if d.Config.Supabase.Enabled {
			v1.Use(middleware.SupabaseAuth(d.Config))
		}

		// ping endpoint
		v1.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, serializer.Response{Msg: "pong"}) })

		documents := v1.Group("/documents")
		{
			documents.POST("", d.DocumentHandler.UploadDocument)
			documents.GET("", d.DocumentHandler.ListDocuments)
			documents.GET("/:document_id", d.DocumentHandler.GetDocument)
			documents.GET("/:document_id/download", d.DocumentHandler.DownloadDocument)
			documents.PATCH("/:document_id/status", d.DocumentHandler.UpdateDocumentStatus)
			documents.DELETE("/:document_id", d.DocumentHandler.DeleteDocument)

			documents.POST("/:document_id/sessions", d.ChatHandler.GetOrCreateSession)
			documents.GET("/:document_id/sessions", d.ChatHandler.ListSessions)
			documents.GET("/:document_id/chat/stats", d.ChatHandler.GetDocumentChatStats)
			documents.DELETE("/:document_id/chats", d.ChatHandler.DeleteDocumentChats)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.POST("/:session_id/messages", d.ChatHandler.SendMessage)
			sessions.GET("/:session_id/messages", d.ChatHandler.GetMessages)
		}
	}
	return r
}
