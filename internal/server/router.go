// Package server assembles the HTTP API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"seswa/internal/middleware"
	chatmod "seswa/internal/modules/chat"
	notificationmod "seswa/internal/modules/notification"
	realtimemod "seswa/internal/modules/realtime"
	jwtsvc "seswa/internal/pkg/jwt"
	"seswa/internal/pkg/logger"
	"seswa/internal/realtime"
	"seswa/internal/session"
)

type Deps struct {
	Sessions    *session.Manager
	Hub         *realtime.Hub
	JWT         *jwtsvc.Service
	RateLimiter *middleware.RateLimiter
	CORSOrigins string
	StoreName   string
	Logger      *zap.Logger
}

// NewRouter wires every route. /health and /metrics are public, everything
// under /api/v1 needs a bearer token.
func NewRouter(d Deps) *gin.Engine {
	log := logger.OrNop(d.Logger)

	notificationHandler := notificationmod.NewHandler(d.Sessions)
	chatHandler := chatmod.NewHandler()
	realtimeHandler := realtimemod.NewHandler(d.Hub, log)

	r := gin.New()
	r.Use(middleware.ErrorLogger(log), middleware.RequestLogger(log), middleware.CORS(d.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": d.StoreName, "sessions": d.Sessions.Len()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(d.JWT))
		if d.RateLimiter != nil {
			protected.Use(d.RateLimiter.Middleware())
		}
		protected.Use(middleware.Session(d.Sessions, log))
		{
			notificationHandler.RegisterRoutes(protected)
			chatHandler.RegisterRoutes(protected)
			realtimeHandler.RegisterRoutes(protected)

			notificationHandler.RegisterAdminRoutes(protected.Group("/admin", middleware.AdminOnly()))
		}
	}

	return r
}
