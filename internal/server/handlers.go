package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strconv"
	"time"

	_ "golang.org/x/image/bmp"

	"github.com/MeKo-Tech/fieldscan/internal/detector"
	"github.com/MeKo-Tech/fieldscan/internal/eval"
	"github.com/MeKo-Tech/fieldscan/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logEncodeError("health", err)
	}
}

// detectHandler runs field detection on an uploaded page image.
func (s *Server) detectHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)
	if err := r.ParseMultipartForm(s.maxUploadMB * 1024 * 1024); err != nil {
		s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErrorResponse(w, "No image file provided", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > s.maxUploadMB*1024*1024 {
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}
	uploadSizeBytes.Observe(float64(header.Size))

	imageData, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read image data", http.StatusInternalServerError)
		return
	}

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		s.writeErrorResponse(w, "Invalid image format", http.StatusBadRequest)
		return
	}

	det, err := s.detectorForRequest(r)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	pixels, width, height := rgbaPixels(img)

	start := time.Now()
	elems := det.Detect(pixels, width, height, nil)
	duration := time.Since(start)

	detectRequestsTotal.WithLabelValues("success").Inc()
	detectDuration.Observe(duration.Seconds())
	fieldsDetected.Observe(float64(len(elems)))

	pageIndex, _ := strconv.Atoi(r.FormValue("pageIndex"))
	page := eval.PagePredictionFromElements(elems, pageIndex, width, height)

	response := DetectResponse{
		Success:    true,
		Width:      width,
		Height:     height,
		Elements:   elems,
		Normalized: &page,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logEncodeError("detect", err)
	}
}

// detectorForRequest returns the shared detector, or a rescaled one when the
// request overrides the render scale.
func (s *Server) detectorForRequest(r *http.Request) (*detector.Detector, error) {
	scaleStr := r.FormValue("scale")
	if scaleStr == "" {
		scaleStr = r.URL.Query().Get("scale")
	}
	if scaleStr == "" {
		return s.det, nil
	}

	scale, err := strconv.ParseFloat(scaleStr, 64)
	if err != nil || scale <= 0 {
		return nil, fmt.Errorf("invalid scale parameter: %q", scaleStr)
	}
	return detector.New(detector.OptionsForScale(scale))
}

// evaluateHandler scores a prediction document against ground truth.
func (s *Server) evaluateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)

	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		evalRequestsTotal.WithLabelValues("error").Inc()
		s.writeErrorResponse(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	threshold := req.IoUThreshold
	if threshold <= 0 {
		threshold = s.iouThreshold
	}

	start := time.Now()
	report := eval.Evaluate(req.Truth, req.Prediction, threshold)
	evalRequestsTotal.WithLabelValues("success").Inc()
	evalDuration.Observe(time.Since(start).Seconds())

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		s.logEncodeError("evaluate", err)
	}
}

// rgbaPixels converts any decoded image into the dense RGBA buffer the
// detector consumes.
func rgbaPixels(img image.Image) ([]byte, int, int) {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || bounds.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	return rgba.Pix, rgba.Bounds().Dx(), rgba.Bounds().Dy()
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{Success: false, Error: message}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logEncodeError("error", err)
	}
}
