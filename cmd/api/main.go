package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"seswa/internal/config"
	"seswa/internal/domain/chat"
	"seswa/internal/domain/notification"
	"seswa/internal/middleware"
	jwtsvc "seswa/internal/pkg/jwt"
	"seswa/internal/pkg/logger"
	"seswa/internal/realtime"
	"seswa/internal/server"
	"seswa/internal/session"
	"seswa/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	if cfg.AppEnv == "prod" || cfg.AppEnv == "production" || cfg.AppEnv == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	backend, err := store.OpenBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal("store open failed", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer backend.Close()
	log.Info("store ready", zap.String("backend", backend.Name))

	hub := realtime.NewHub(log)
	manager := session.NewManager(session.Deps{
		Chats:         store.NewAdapter[[]chat.Thread](backend.KV, cfg.ChatKeyPrefix, log),
		Notifications: store.NewAdapter[[]notification.Notification](backend.KV, cfg.NotificationKeyPrefix, log),
		Hub:           hub,
		Sources: session.SourcesFor(session.SourceOptions{
			Mode:                 cfg.InboundMode,
			WebSocketURL:         cfg.InboundWSURL,
			SimulatorInterval:    cfg.SimulatorInterval,
			SimulatorProbability: cfg.SimulatorProbability,
			Logger:               log,
		}),
		SeedDefaults: cfg.SeedDefaultChats,
		IdleTimeout:  cfg.SessionIdleTimeout,
		Logger:       log,
	})
	sweepCtx, stopSweep := context.WithCancel(ctx)
	go manager.Run(sweepCtx, cfg.SessionSweepInterval)

	r := server.NewRouter(server.Deps{
		Sessions:    manager,
		Hub:         hub,
		JWT:         jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL),
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		CORSOrigins: cfg.CORSAllowedOrigins,
		StoreName:   backend.Name,
		Logger:      log,
	})

	srv := &http.Server{
		Addr:        cfg.HTTPAddr,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.AppEnv),
			zap.String("inbound", cfg.InboundMode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	stopSweep()
	hub.Shutdown()
	manager.CloseAll()
	log.Info("server stopped")
}
