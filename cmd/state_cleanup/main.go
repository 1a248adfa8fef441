package main

import (
	"context"
	"flag"
	"time"

	"go.uber.org/zap"

	"seswa/internal/config"
	"seswa/internal/domain/chat"
	"seswa/internal/domain/notification"
	"seswa/internal/pkg/logger"
	"seswa/internal/store"
)

func main() {
	userID := flag.String("user", "", "delete every snapshot of this user")
	olderThan := flag.Duration("older-than", 0, "delete snapshots not written within this window (database backend only)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	if *userID == "" && *olderThan <= 0 {
		log.Fatal("nothing to do: pass -user and/or -older-than")
	}

	ctx := context.Background()
	backend, err := store.OpenBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal("store open failed", zap.Error(err))
	}
	defer backend.Close()

	if *userID != "" {
		for _, st := range []store.UserState{
			store.NewAdapter[[]chat.Thread](backend.KV, cfg.ChatKeyPrefix, log),
			store.NewAdapter[[]notification.Notification](backend.KV, cfg.NotificationKeyPrefix, log),
		} {
			if err := st.Delete(ctx, *userID); err != nil {
				log.Fatal("delete failed", zap.String("key", st.Key(*userID)), zap.Error(err))
			}
			log.Info("deleted", zap.String("key", st.Key(*userID)))
		}
	}

	if *olderThan > 0 {
		gkv, ok := backend.KV.(*store.GormKV)
		if !ok {
			log.Fatal("-older-than needs STORE_BACKEND=database", zap.String("backend", backend.Name))
		}
		n, err := gkv.PurgeOlderThan(ctx, time.Now().Add(-*olderThan))
		if err != nil {
			log.Fatal("purge failed", zap.Error(err))
		}
		log.Info("purged stale snapshots", zap.Int64("rows", n), zap.Duration("older_than", *olderThan))
	}

	log.Info("state cleanup completed")
}
