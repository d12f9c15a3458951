package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/fieldscan/internal/detector"
	"github.com/MeKo-Tech/fieldscan/internal/eval"
	"github.com/MeKo-Tech/fieldscan/internal/geometry"
	"github.com/MeKo-Tech/fieldscan/internal/testutil"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := NewServer(Config{CORSOrigin: "*", MaxUploadMB: 10, TimeoutSec: 5})
	require.NoError(t, err)
	return srv
}

func TestHealthHandler(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.healthHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.NotEmpty(t, resp.Time)
}

func TestHealthHandler_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rec := httptest.NewRecorder()
	srv.healthHandler(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// multipartImage encodes a synthetic page as a PNG multipart upload.
func multipartImage(t *testing.T, page *testutil.FormPage) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "page.png")
	require.NoError(t, err)
	require.NoError(t, png.Encode(part, page.Image()))
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func TestDetectHandler(t *testing.T) {
	srv := newTestServer(t)

	page := testutil.NewFormPage(600, 800)
	page.DrawCheckbox(200, 300, 14)

	body, contentType := multipartImage(t, page)
	req := httptest.NewRequest(http.MethodPost, "/detect", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.detectHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp DetectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 600, resp.Width)
	assert.Equal(t, 800, resp.Height)

	require.Len(t, resp.Elements, 1)
	assert.Equal(t, detector.FieldCheckbox, resp.Elements[0].Type)

	require.NotNil(t, resp.Normalized)
	require.Len(t, resp.Normalized.Fields, 1)
	assert.InDelta(t, 200.0/600.0, resp.Normalized.Fields[0].Rect.X, 1e-9)
}

func TestDetectHandler_NoFile(t *testing.T) {
	srv := newTestServer(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/detect", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.detectHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetectHandler_InvalidImage(t *testing.T) {
	srv := newTestServer(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "page.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("not a png"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/detect", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.detectHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetectHandler_InvalidScale(t *testing.T) {
	srv := newTestServer(t)

	page := testutil.NewFormPage(100, 100)
	body, contentType := multipartImage(t, page)
	req := httptest.NewRequest(http.MethodPost, "/detect?scale=bogus", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.detectHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvaluateHandler(t *testing.T) {
	srv := newTestServer(t)

	rect := geometry.Rect{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.05}
	reqBody := EvaluateRequest{
		Truth: &eval.DocumentAnnotation{
			DocumentID: "doc-1",
			Pages: []eval.PageAnnotation{{
				Fields: []eval.FieldAnnotation{{Type: detector.FieldText, Rect: rect}},
			}},
		},
		Prediction: eval.DetectionOutput{
			DocumentID: "doc-1",
			Pages: []eval.PagePrediction{{
				Fields: []eval.FieldPrediction{{Type: detector.FieldText, Rect: rect}},
			}},
		},
	}
	data, err := json.Marshal(reqBody)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/evaluate", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	srv.evaluateHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var report eval.EvaluationReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.InDelta(t, 1.0, report.Micro.F1, 1e-9)
	assert.InDelta(t, eval.DefaultIoUThreshold, report.IoUThreshold, 1e-9)
}

func TestEvaluateHandler_BadBody(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/evaluate", strings.NewReader("{broken"))
	rec := httptest.NewRecorder()
	srv.evaluateHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoutes(t *testing.T) {
	srv := newTestServer(t)
	mux := http.NewServeMux()
	srv.SetupRoutes(mux)

	ts := httptest.NewServer(mux)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	metricsResp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = metricsResp.Body.Close() }()
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)
}
