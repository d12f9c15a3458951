package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/fieldscan/internal/batch"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin in development.
		// In production, check against allowed origins.
		return true
	},
}

// BatchRequest starts a dataset evaluation over WebSocket.
type BatchRequest struct {
	Dir             string  `json:"dir"`
	Workers         int     `json:"workers,omitempty"`
	IoUThreshold    float64 `json:"iouThreshold,omitempty"`
	Recursive       bool    `json:"recursive,omitempty"`
	ContinueOnError bool    `json:"continueOnError,omitempty"`
}

// BatchResponse is one streamed message: progress updates while the run is
// active, then a completed message carrying the corpus metrics.
type BatchResponse struct {
	Type      string               `json:"type"` // "progress", "completed", "error"
	Completed int                  `json:"completed,omitempty"`
	Total     int                  `json:"total,omitempty"`
	Document  string               `json:"document,omitempty"`
	Error     string               `json:"error,omitempty"`
	Corpus    *batch.CorpusMetrics `json:"corpus,omitempty"`
}

// wsWriter serializes writes; batch progress callbacks arrive from worker
// goroutines.
type wsWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsWriter) send(resp BatchResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("failed to marshal WebSocket response", "error", err)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("failed to send WebSocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// batchWebSocketHandler streams batch evaluation progress to the client.
func (s *Server) batchWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleBatchConnection(r, conn)
}

func (s *Server) handleBatchConnection(r *http.Request, conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	writer := &wsWriter{conn: conn}

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType != websocket.TextMessage {
			continue
		}

		var req BatchRequest
		if err := json.Unmarshal(data, &req); err != nil {
			writer.send(BatchResponse{Type: "error", Error: "invalid request: " + err.Error()})
			continue
		}
		if req.Dir == "" {
			writer.send(BatchResponse{Type: "error", Error: "no dataset directory provided"})
			continue
		}

		s.runBatchOverWebSocket(r, writer, req)

		// A batch run can take a while; give the client fresh read time.
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	}
}

func (s *Server) runBatchOverWebSocket(r *http.Request, writer *wsWriter, req BatchRequest) {
	cfg := s.batchCfg
	if req.Workers > 0 {
		cfg.Workers = req.Workers
	}
	if req.IoUThreshold > 0 {
		cfg.IoUThreshold = req.IoUThreshold
	} else if cfg.IoUThreshold <= 0 {
		cfg.IoUThreshold = s.iouThreshold
	}
	cfg.Recursive = req.Recursive
	cfg.ContinueOnError = req.ContinueOnError || cfg.ContinueOnError

	res, err := batch.Run(r.Context(), req.Dir, cfg, func(p batch.Progress) {
		resp := BatchResponse{
			Type:      "progress",
			Completed: p.Completed,
			Total:     p.Total,
			Document:  p.Name,
		}
		if p.Err != nil {
			resp.Error = p.Err.Error()
		}
		writer.send(resp)
	})
	if err != nil {
		writer.send(BatchResponse{Type: "error", Error: err.Error()})
		return
	}

	writer.send(BatchResponse{
		Type:      "completed",
		Completed: len(res.Documents),
		Total:     len(res.Documents),
		Corpus:    &res.Corpus,
	})
}
