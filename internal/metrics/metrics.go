// Package metrics declares the Prometheus collectors exported by the API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	// HTTPRequestsTotal counts requests by method, route pattern and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bumdes_http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bumdes_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Upload metrics
var (
	// UploadsTotal counts stored images by outcome ("stored", "failed").
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bumdes_uploads_total",
			Help: "Image uploads by outcome",
		},
		[]string{"result"},
	)

	// ValidationRejections counts files rejected by a validation stage ("metadata", "signature").
	ValidationRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bumdes_upload_validation_rejections_total",
			Help: "Uploaded files rejected by validation stage",
		},
		[]string{"stage"},
	)

	// TranscodeDuration tracks WebP transcoding latency in seconds.
	TranscodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bumdes_image_transcode_duration_seconds",
			Help:    "WebP transcoding duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	// AssetCacheResults counts catalogue asset lookups by cache result ("hit", "miss").
	AssetCacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bumdes_asset_cache_results_total",
			Help: "Catalogue asset transcode cache lookups by result",
		},
		[]string{"result"},
	)
	// RateLimitRejections counts upload requests rejected by the rate limiter.
	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bumdes_ratelimit_rejections_total",
			Help: "Upload requests rejected by the rate limiter",
		},
	)
)

// Auth metrics
var (
	// LoginAttempts counts admin login attempts by outcome.
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bumdes_admin_login_attempts_total",
			Help: "Admin login attempts by outcome",
		},
		[]string{"result"},
	)
)
