package main

import (
	"context"
	"flag"
	"time"

	"go.uber.org/zap"

	"seswa/internal/config"
	"seswa/internal/domain"
	"seswa/internal/domain/chat"
	"seswa/internal/domain/notification"
	"seswa/internal/pkg/logger"
	"seswa/internal/session"
	"seswa/internal/store"
)

var demoUsers = []domain.User{
	{ID: "student_demo", FirstName: "Amara", LastName: "Okafor", Email: "amara@seswa.example", Role: domain.RoleStudent},
	{ID: "alumni_demo", FirstName: "Kwame", LastName: "Mensah", Email: "kwame@seswa.example", Role: domain.RoleAlumni},
	{ID: "admin_demo", FirstName: "SESWA", LastName: "Admin", Email: "admin@seswa.example", Role: domain.RoleAdmin},
}

func main() {
	reset := flag.Bool("reset", false, "delete existing state of the demo users first")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	if cfg.StoreBackend == config.StoreMemory {
		log.Fatal("seeding the in-memory store has no effect, set STORE_BACKEND")
	}

	ctx := context.Background()
	backend, err := store.OpenBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal("store open failed", zap.Error(err))
	}
	defer backend.Close()

	chats := store.NewAdapter[[]chat.Thread](backend.KV, cfg.ChatKeyPrefix, log)
	notifications := store.NewAdapter[[]notification.Notification](backend.KV, cfg.NotificationKeyPrefix, log)

	if *reset {
		for _, u := range demoUsers {
			for _, st := range []store.UserState{chats, notifications} {
				if err := st.Delete(ctx, u.ID); err != nil {
					log.Fatal("reset failed", zap.String("key", st.Key(u.ID)), zap.Error(err))
				}
			}
		}
		log.Info("demo state reset")
	}

	deps := session.Deps{Chats: chats, Notifications: notifications, SeedDefaults: true, Logger: log}
	now := time.Now()

	for _, u := range demoUsers {
		s, err := session.Open(ctx, deps, domain.CurrentUser{User: u, Authenticated: true})
		if err != nil {
			log.Fatal("open session failed", zap.String("user_id", u.ID), zap.Error(err))
		}

		n := s.Notifications
		if len(n.Notifications()) == 0 {
			n.CreateSystemNotification("Welcome to SESWA", "Your member portal is ready.", notification.PriorityNormal)
			n.CreateEventNotification(notification.Event{ID: "annual-gala", Title: "Annual Gala", Date: now.AddDate(0, 0, 14)})
			n.CreateReminderNotification("Membership renewal", "Your membership renews next month.", now.AddDate(0, 1, 0), "/membership")
			switch u.Role {
			case domain.RoleStudent:
				n.CreateMentorshipNotification("Mentor matched", "You have been matched with a mentor.", "")
			case domain.RoleAlumni:
				n.CreateContributionNotification("Thank you", "Your contribution to the scholarship fund was received.", "scholarship-2026")
			}
		}

		s.Close()
		log.Info("seeded user",
			zap.String("user_id", u.ID),
			zap.String("role", string(u.Role)),
			zap.Int("chats", len(s.Chats.Chats())),
			zap.Int("notifications", len(n.Notifications())),
		)
	}
	log.Info("seed completed", zap.String("backend", backend.Name))
}
