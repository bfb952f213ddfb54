package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fotoden"

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)
)

// Upload pipeline metrics
var (
	PhotosUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photos_uploaded_total",
			Help:      "Total number of photos successfully ingested",
		},
	)

	UploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_bytes",
			Help:      "Uploaded original size distribution in bytes",
			Buckets:   prometheus.ExponentialBuckets(64*1024, 2, 9), // 64 KiB .. 16 MiB
		},
	)

	// Best-effort stages record their failures here; uploads still succeed
	// when these fire, so error logs alone would undercount.
	IngestThumbnailFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_thumbnail_failures_total",
			Help:      "Uploads whose thumbnail generation failed",
		},
	)

	IngestExifFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_exif_failures_total",
			Help:      "Uploads whose metadata extraction failed",
		},
	)

	StorageRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_put_retries_total",
			Help:      "Retry attempts while writing originals to blob storage",
		},
	)
)

// Gallery engagement metrics
var (
	PhotoViews = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photo_views_total",
			Help:      "Total photo detail views",
		},
	)

	PhotoDownloads = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photo_downloads_total",
			Help:      "Total original downloads",
		},
	)

	PhotoLikes = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photo_likes_total",
			Help:      "Total likes recorded",
		},
	)
)
