package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     prometheus.CounterVec
	HTTPRequestDuration   prometheus.HistogramVec
	HTTPRequestSize       prometheus.HistogramVec
	HTTPResponseSize      prometheus.HistogramVec
	HTTPActiveConnections prometheus.GaugeVec

	// Database metrics
	DatabaseQueryDuration   prometheus.HistogramVec
	DatabaseQueriesTotal    prometheus.CounterVec
	DatabaseConnectionsOpen prometheus.GaugeVec

	// Feed metrics
	FeedGenerationTime prometheus.HistogramVec
	FeedItemsReturned  prometheus.HistogramVec

	// Engagement metrics
	EngagementEventsTotal prometheus.CounterVec

	// Social graph metrics
	FollowEventsTotal prometheus.CounterVec

	// Content metrics
	PostsCreatedTotal    prometheus.CounterVec
	CommentsCreatedTotal prometheus.Counter

	// Error metrics
	ErrorsTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestSize: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_size_bytes",
					Help:    "HTTP request body size in bytes",
					Buckets: prometheus.ExponentialBuckets(100, 10, 7),
				},
				[]string{"method", "path"},
			),
			HTTPResponseSize: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_response_size_bytes",
					Help:    "HTTP response size in bytes",
					Buckets: prometheus.ExponentialBuckets(100, 10, 7),
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of currently active HTTP connections",
				},
				[]string{"method", "path"},
			),

			DatabaseQueryDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "database_query_duration_seconds",
					Help:    "Database query latency in seconds",
					Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
				},
				[]string{"query_type", "table"},
			),
			DatabaseQueriesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "database_queries_total",
					Help: "Total number of database queries",
				},
				[]string{"query_type", "table", "status"},
			),
			DatabaseConnectionsOpen: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "database_connections_open",
					Help: "Number of open database connections",
				},
				[]string{"database"},
			),

			FeedGenerationTime: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "feed_generation_duration_seconds",
					Help:    "Feed composition latency in seconds",
					Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
				},
				[]string{"feed_type"},
			),
			FeedItemsReturned: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "feed_items_returned",
					Help:    "Number of items returned per feed request",
					Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
				},
				[]string{"feed_type"},
			),

			EngagementEventsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "engagement_events_total",
					Help: "Total number of like and repost events",
				},
				[]string{"event_type"},
			),

			FollowEventsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "follow_events_total",
					Help: "Total number of follow and unfollow events",
				},
				[]string{"event_type"},
			),

			PostsCreatedTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "posts_created_total",
					Help: "Total number of posts created",
				},
				[]string{"published"},
			),
			CommentsCreatedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "comments_created_total",
					Help: "Total number of comments created",
				},
			),

			ErrorsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Total number of application errors",
				},
				[]string{"error_type", "endpoint"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it if necessary
func Get() *Metrics {
	if instance == nil {
		return Initialize()
	}
	return instance
}

// RecordFeedGeneration records the latency and size of one feed composition
func RecordFeedGeneration(feedType string, duration time.Duration, itemCount int) {
	m := Get()
	m.FeedGenerationTime.WithLabelValues(feedType).Observe(duration.Seconds())
	m.FeedItemsReturned.WithLabelValues(feedType).Observe(float64(itemCount))
}

// RecordEngagementEvent records a like, unlike, repost, or unrepost
func RecordEngagementEvent(eventType string) {
	Get().EngagementEventsTotal.WithLabelValues(eventType).Inc()
}

// RecordFollowEvent records a follow or unfollow
func RecordFollowEvent(eventType string) {
	Get().FollowEventsTotal.WithLabelValues(eventType).Inc()
}

// RecordPostCreated records a post creation, labelled by publish state
func RecordPostCreated(published bool) {
	label := "false"
	if published {
		label = "true"
	}
	Get().PostsCreatedTotal.WithLabelValues(label).Inc()
}

// RecordCommentCreated records a comment creation
func RecordCommentCreated() {
	Get().CommentsCreatedTotal.Inc()
}

// RecordError records an application error by type and endpoint
func RecordError(errorType, endpoint string) {
	Get().ErrorsTotal.WithLabelValues(errorType, endpoint).Inc()
}

// SetDatabaseConnections records the current open connection count
func SetDatabaseConnections(database string, count int) {
	Get().DatabaseConnectionsOpen.WithLabelValues(database).Set(float64(count))
}
