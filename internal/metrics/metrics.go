package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seswa_notifications_created_total",
			Help: "Total number of notifications added, by type",
		},
		[]string{"type"},
	)

	ChatMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seswa_chat_messages_total",
			Help: "Total number of chat messages appended, by direction (sent|received)",
		},
		[]string{"direction"},
	)

	StoreWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seswa_store_writes_total",
			Help: "Total number of snapshot writes, by result (ok|error|stale)",
		},
		[]string{"result"},
	)

	StoreLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seswa_store_loads_total",
			Help: "Total number of snapshot loads, by result (hit|miss|corrupt|error)",
		},
		[]string{"result"},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "seswa_sessions_active",
			Help: "Number of open user sessions",
		},
	)

	RealtimeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "seswa_realtime_connections",
			Help: "Number of connected realtime websocket clients",
		},
	)
)
