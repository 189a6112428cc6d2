package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostsCreated counts posts created, by origin (api, composer, cli).
	PostsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sudonet_posts_created_total",
		Help: "Total number of posts created",
	}, []string{"origin"})

	// StreetCredToggles counts reputation toggles by resulting state.
	StreetCredToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sudonet_street_cred_toggles_total",
		Help: "Total number of street cred toggles by resulting state",
	}, []string{"state"})

	// RealtimeEvents counts change notifications published per channel.
	RealtimeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sudonet_realtime_events_total",
		Help: "Total number of realtime change notifications published",
	}, []string{"channel", "event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sudonet_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// ProfileResolutions counts profile resolution outcomes by the strategy that answered.
	ProfileResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sudonet_profile_resolutions_total",
		Help: "Total number of profile resolutions by outcome",
	}, []string{"outcome"})

	// ComposerSessions is the number of live HTTP composer sessions.
	ComposerSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sudonet_composer_sessions",
		Help: "Number of live composer sessions",
	})
)
