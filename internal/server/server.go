// Package server exposes field detection and evaluation over HTTP. Single
// pages are detected and scored via REST endpoints; whole dataset
// directories are evaluated over a WebSocket that streams progress.
package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/fieldscan/internal/batch"
	"github.com/MeKo-Tech/fieldscan/internal/detector"
	"github.com/MeKo-Tech/fieldscan/internal/eval"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	det          *detector.Detector
	scale        float64
	iouThreshold float64
	corsOrigin   string
	maxUploadMB  int64
	timeoutSec   int
	batchCfg     batch.Config
}

// Config holds server configuration.
type Config struct {
	Host            string
	Port            int
	CORSOrigin      string
	MaxUploadMB     int64
	TimeoutSec      int
	Scale           float64
	DetectorOptions detector.Options
	IoUThreshold    float64
	Batch           batch.Config
}

// Response types for API endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

type DetectResponse struct {
	Success    bool                       `json:"success"`
	Error      string                     `json:"error,omitempty"`
	Width      int                        `json:"width,omitempty"`
	Height     int                        `json:"height,omitempty"`
	Elements   []detector.DetectedElement `json:"elements,omitempty"`
	Normalized *eval.PagePrediction       `json:"normalized,omitempty"`
}

type EvaluateRequest struct {
	Truth        *eval.DocumentAnnotation `json:"truth"`
	Prediction   eval.DetectionOutput     `json:"prediction"`
	IoUThreshold float64                  `json:"iouThreshold,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewServer creates a detection server instance.
func NewServer(config Config) (*Server, error) {
	opts := config.DetectorOptions
	if opts == (detector.Options{}) {
		if config.Scale > 0 {
			opts = detector.OptionsForScale(config.Scale)
		} else {
			opts = detector.DefaultOptions()
		}
	}

	det, err := detector.New(opts)
	if err != nil {
		return nil, err
	}

	iou := config.IoUThreshold
	if iou <= 0 {
		iou = eval.DefaultIoUThreshold
	}

	maxUpload := config.MaxUploadMB
	if maxUpload <= 0 {
		maxUpload = 50
	}

	return &Server{
		det:          det,
		scale:        config.Scale,
		iouThreshold: iou,
		corsOrigin:   config.CORSOrigin,
		maxUploadMB:  maxUpload,
		timeoutSec:   config.TimeoutSec,
		batchCfg:     config.Batch,
	}, nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/detect", s.corsMiddleware(s.detectHandler))
	mux.HandleFunc("/evaluate", s.corsMiddleware(s.evaluateHandler))
	mux.HandleFunc("/ws/batch", s.batchWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}

// HTTPServer builds a http.Server with the configured timeouts.
func (s *Server) HTTPServer(addr string) *http.Server {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)

	timeout := time.Duration(s.timeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}
}
