package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec

	// Upload pipeline metrics
	DetectionsTotal     prometheus.CounterVec
	GarmentsDetected    prometheus.Histogram
	ItemsCreatedTotal   prometheus.CounterVec
	PipelineFailures    prometheus.CounterVec
	GenerationDuration  prometheus.HistogramVec

	// Try-on cache metrics
	TryOnCacheHitsTotal   prometheus.Counter
	TryOnCacheMissesTotal prometheus.Counter
	TryOnForcedTotal      prometheus.Counter
	TryOnRenderDuration   prometheus.Histogram

	// Rate limiting metrics
	RateLimitExceededTotal prometheus.CounterVec
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
					Name: "stylevault_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "stylevault_http_request_duration_seconds",
					Help:    "HTTP request latency",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "path"},
			),

			DetectionsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "stylevault_detections_total",
					Help: "Garment detection calls by outcome",
				},
				[]string{"outcome"},
			),
			GarmentsDetected: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "stylevault_garments_detected",
					Help:    "Garments found per detection call",
					Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
				},
			),
			ItemsCreatedTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "stylevault_items_created_total",
					Help: "Wardrobe items created by outcome",
				},
				[]string{"outcome"},
			),
			PipelineFailures: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "stylevault_pipeline_failures_total",
					Help: "Upload pipeline per-garment failures by stage",
				},
				[]string{"stage"},
			),
			GenerationDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "stylevault_generation_duration_seconds",
					Help:    "Image generation latency by kind",
					Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
				},
				[]string{"kind"},
			),

			TryOnCacheHitsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "stylevault_tryon_cache_hits_total",
					Help: "Try-on requests served from the render cache",
				},
			),
			TryOnCacheMissesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "stylevault_tryon_cache_misses_total",
					Help: "Try-on requests that required a fresh render",
				},
			),
			TryOnForcedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "stylevault_tryon_forced_total",
					Help: "Try-on requests that forced regeneration",
				},
			),
			TryOnRenderDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "stylevault_tryon_render_duration_seconds",
					Help:    "End-to-end try-on render latency",
					Buckets: []float64{1, 2, 5, 10, 20, 40, 60, 120},
				},
			),

			RateLimitExceededTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "stylevault_rate_limit_exceeded_total",
					Help: "Requests rejected by rate limiting",
				},
				[]string{"endpoint"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it if needed
func Get() *Metrics {
	return Initialize()
}
