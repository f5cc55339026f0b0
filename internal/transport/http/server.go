package http

import (
	"github.com/gin-gonic/gin"

	"spokesbot/internal/transport/http/handler"
	"spokesbot/internal/transport/http/middleware"
)

type Handlers struct {
	Chat   *handler.ChatHandler
	Admin  *handler.AdminHandler
	Health *handler.HealthHandler
}

// NewRouter assembles the gin engine. The rate limiter guards only the chat
// endpoints; health and admin stay unthrottled.
func NewRouter(mode string, limiter *middleware.RateLimiter, h Handlers) *gin.Engine {
	gin.SetMode(mode)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", h.Health.Health)

	api := r.Group("/api/v1")
	{
		chat := api.Group("", limiter.Handler())
		{
			chat.POST("/chat", h.Chat.Chat)
			chat.POST("/chat/debug", h.Chat.ChatDebug)
		}

		admin := api.Group("/admin")
		{
			admin.POST("/reindex", h.Admin.Reindex)
			admin.GET("/documents", h.Admin.Documents)
		}
	}

	return r
}
