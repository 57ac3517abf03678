package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "battlelog_events_ingested_total",
			Help: "Total number of telemetry events accepted, by event type.",
		},
		[]string{"type"},
	)

	BatchEventErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "battlelog_batch_event_errors_total",
		Help: "Total number of batch entries that failed to process.",
	})

	AchievementUnlocks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "battlelog_achievement_unlocks_total",
		Help: "Total number of achievements unlocked.",
	})

	LeaderboardRecomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "battlelog_leaderboard_recompute_seconds",
		Help:    "Duration of a full leaderboard recompute pass.",
		Buckets: prometheus.DefBuckets,
	})

	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "battlelog_sessions_started_total",
		Help: "Total number of game sessions started.",
	})

	SessionsEnded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "battlelog_sessions_ended_total",
		Help: "Total number of game sessions ended.",
	})
)
