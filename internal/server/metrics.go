package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldscan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fieldscan_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Detection metrics
	detectRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldscan_detect_requests_total",
			Help: "Total number of detection requests",
		},
		[]string{"status"},
	)

	detectDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fieldscan_detect_duration_seconds",
			Help:    "Field detection duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	fieldsDetected = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fieldscan_fields_detected",
			Help:    "Number of form fields detected per page",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)

	// Evaluation metrics
	evalRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldscan_eval_requests_total",
			Help: "Total number of evaluation requests",
		},
		[]string{"status"},
	)

	evalDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fieldscan_eval_duration_seconds",
			Help:    "Evaluation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fieldscan_upload_size_bytes",
			Help:    "Size of uploaded files in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024, 50 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fieldscan_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldscan_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"},
	)
)
