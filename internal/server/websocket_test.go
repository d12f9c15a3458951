package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/fieldscan/internal/dataset"
	"github.com/MeKo-Tech/fieldscan/internal/detector"
	"github.com/MeKo-Tech/fieldscan/internal/eval"
	"github.com/MeKo-Tech/fieldscan/internal/geometry"
)

func dialBatchSocket(t *testing.T) (*websocket.Conn, func()) {
	t.Helper()
	srv, err := NewServer(Config{})
	require.NoError(t, err)

	mux := http.NewServeMux()
	srv.SetupRoutes(mux)
	ts := httptest.NewServer(mux)

	wsURL := strings.Replace(ts.URL, "http://", "ws://", 1) + "/ws/batch"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}

	return conn, func() {
		_ = conn.Close()
		ts.Close()
	}
}

func readBatchResponse(t *testing.T, conn *websocket.Conn) BatchResponse {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var resp BatchResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp
}

func TestBatchWebSocket_RunsDataset(t *testing.T) {
	dir := t.TempDir()
	rect := geometry.Rect{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.05}
	truth := &eval.DocumentAnnotation{
		DocumentID: "doc",
		Pages: []eval.PageAnnotation{{
			Fields: []eval.FieldAnnotation{{Type: detector.FieldText, Rect: rect}},
		}},
	}
	pred := eval.DetectionOutput{
		DocumentID: "doc",
		Pages: []eval.PagePrediction{{
			Fields: []eval.FieldPrediction{{Type: detector.FieldText, Rect: rect}},
		}},
	}
	require.NoError(t, dataset.SaveAnnotation(filepath.Join(dir, "doc.truth.json"), truth))
	require.NoError(t, dataset.SavePrediction(filepath.Join(dir, "doc.pred.json"), pred))

	conn, cleanup := dialBatchSocket(t)
	defer cleanup()

	require.NoError(t, conn.WriteJSON(BatchRequest{Dir: dir, Workers: 1}))

	var completed *BatchResponse
	for i := 0; i < 10; i++ {
		resp := readBatchResponse(t, conn)
		switch resp.Type {
		case "progress":
			assert.Equal(t, 1, resp.Total)
		case "completed":
			completed = &resp
		case "error":
			t.Fatalf("unexpected error response: %s", resp.Error)
		}
		if completed != nil {
			break
		}
	}

	require.NotNil(t, completed)
	require.NotNil(t, completed.Corpus)
	assert.Equal(t, 1, completed.Corpus.Documents)
	assert.InDelta(t, 1.0, completed.Corpus.Micro.F1, 1e-9)
}

func TestBatchWebSocket_InvalidRequest(t *testing.T) {
	conn, cleanup := dialBatchSocket(t)
	defer cleanup()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{broken")))
	resp := readBatchResponse(t, conn)
	assert.Equal(t, "error", resp.Type)
}

func TestBatchWebSocket_MissingDirectory(t *testing.T) {
	conn, cleanup := dialBatchSocket(t)
	defer cleanup()

	require.NoError(t, conn.WriteJSON(BatchRequest{Dir: ""}))
	resp := readBatchResponse(t, conn)
	assert.Equal(t, "error", resp.Type)
	assert.Contains(t, resp.Error, "no dataset directory")
}
