package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EngagementEvents counts like/unlike/comment/follow/unfollow/post/view events.
	EngagementEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "picfeed_engagement_events_total",
		Help: "Total engagement events by type",
	}, []string{"event"})

	// FeedQueryLatency records feed composition latency by feed kind.
	FeedQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "picfeed_feed_query_latency_seconds",
		Help:    "Feed query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"feed"})

	// UniqueConflicts counts store-level unique violations surfaced as CONFLICT.
	UniqueConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "picfeed_unique_conflicts_total",
		Help: "Unique constraint races resolved by the store",
	}, []string{"entity"})

	// NotificationsPublished counts realtime notifications by type.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "picfeed_notifications_published_total",
		Help: "Realtime notifications published by type",
	}, []string{"type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "picfeed_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// MailDeliveries counts verification mail attempts by outcome.
	MailDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "picfeed_mail_deliveries_total",
		Help: "Verification mail deliveries by outcome",
	}, []string{"outcome"})
)

// Engagement event labels.
const (
	EventPostCreated = "post_created"
	EventPostDeleted = "post_deleted"
	EventLike        = "like"
	EventUnlike      = "unlike"
	EventComment     = "comment"
	EventFollow      = "follow"
	EventUnfollow    = "unfollow"
	EventView        = "view"
)

// RecordEngagement increments the engagement counter for event.
func RecordEngagement(event string) {
	EngagementEvents.WithLabelValues(event).Inc()
}

// TrackFeedQuery returns a function that records feed latency when called (e.g. defer).
func TrackFeedQuery(feed string) func() {
	start := time.Now()
	return func() {
		FeedQueryLatency.WithLabelValues(feed).Observe(time.Since(start).Seconds())
	}
}
