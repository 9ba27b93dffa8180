package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by command name.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinelog_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records repository query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cinelog_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ReviewsWritten counts review mutations by kind (create, update, delete).
	ReviewsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinelog_reviews_written_total",
		Help: "Total number of review writes by kind",
	}, []string{"kind"})

	// LikeToggles counts like toggles by resulting state (liked, unliked).
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinelog_like_toggles_total",
		Help: "Total number of like toggles by resulting state",
	}, []string{"state"})

	// AggregateRecomputes counts derived aggregate recomputes by target and result.
	AggregateRecomputes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinelog_aggregate_recomputes_total",
		Help: "Total number of derived aggregate recomputes",
	}, []string{"target", "result"})

	// UploadsStored counts stored upload files by kind (profiles, reviews, webp).
	UploadsStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinelog_uploads_stored_total",
		Help: "Total number of stored upload files by kind",
	}, []string{"kind"})

	// UploadsRejected counts rejected upload files by reason.
	UploadsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinelog_uploads_rejected_total",
		Help: "Total number of rejected upload files by reason",
	}, []string{"reason"})

	// WebSocketConnectionsTotal is the gauge of open activity stream connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cinelog_websocket_connections",
		Help: "Number of open activity stream connections",
	})

	// WebSocketEventsTotal counts activity events delivered by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinelog_websocket_events_total",
		Help: "Total activity events delivered by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts events dropped because a client's send buffer was full.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinelog_websocket_backpressure_drops_total",
		Help: "Total number of activity events dropped due to backpressure",
	}, []string{"reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// ResultLabel converts an error into the "ok"/"error" label used by result counters.
func ResultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
