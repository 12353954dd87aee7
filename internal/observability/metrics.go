package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messenger_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "messenger_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// FriendRequestEvents counts friend request transitions (sent, accepted, rejected, cancelled).
	FriendRequestEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messenger_friend_request_events_total",
		Help: "Total friend request transitions by event",
	}, []string{"event"})

	// RoomEvents counts room lifecycle events (created, joined, left, renamed, dissolved).
	RoomEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messenger_room_events_total",
		Help: "Total message room lifecycle events by event",
	}, []string{"event"})

	// MessagesPosted counts stored messages.
	MessagesPosted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messenger_messages_posted_total",
		Help: "Total number of messages posted",
	})

	// AuthEvents counts authentication outcomes.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messenger_auth_events_total",
		Help: "Total authentication events by event and outcome",
	}, []string{"event", "outcome"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
