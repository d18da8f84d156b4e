package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/AinsleeWang/smart-doc-scan/internal/detector"
	"github.com/AinsleeWang/smart-doc-scan/internal/docerr"
	"github.com/AinsleeWang/smart-doc-scan/internal/pdf"
	"github.com/AinsleeWang/smart-doc-scan/internal/pipeline"
	"github.com/AinsleeWang/smart-doc-scan/internal/utils"
	"github.com/disintegration/imaging"
	"github.com/gorilla/websocket"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketScanRequest is a text frame asking for a scan. Binary frames carry
// the encoded image alone and are treated as a scan in the server's format.
type WebSocketScanRequest struct {
	Type      string `json:"type"` // "scan" or "detect"
	Image     []byte `json:"image"`
	Format    string `json:"format,omitempty"`
	Overlay   bool   `json:"overlay,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// WebSocketScanResponse is the JSON status frame sent for every request. A
// completed scan in an image format is followed by one binary frame.
type WebSocketScanResponse struct {
	Type      string               `json:"type"`
	Status    string               `json:"status"` // processing, completed, not_found or error
	Progress  float64              `json:"progress,omitempty"`
	Result    *pipeline.ScanReport `json:"result,omitempty"`
	Format    string               `json:"format,omitempty"`
	Error     string               `json:"error,omitempty"`
	ErrorType string               `json:"error_type,omitempty"`
	RequestID string               `json:"request_id,omitempty"`
}

// scanWebSocketHandler upgrades the connection and serves scan requests until
// the client goes away.
func (s *Server) scanWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(r.Context(), conn)
}

// handleWebSocketConnection processes messages from a WebSocket connection.
func (s *Server) handleWebSocketConnection(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadLimit(s.maxUploadMB * 1024 * 1024 * 2)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		websocketMessagesTotal.WithLabelValues("received").Inc()

		switch messageType {
		case websocket.BinaryMessage:
			s.handleWebSocketRequest(ctx, conn, WebSocketScanRequest{Type: "scan", Image: data})
		case websocket.TextMessage:
			var req WebSocketScanRequest
			if err := json.Unmarshal(data, &req); err != nil {
				s.sendWebSocketError(conn, "", "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
				continue
			}
			s.handleWebSocketRequest(ctx, conn, req)
		}
	}
}

// handleWebSocketRequest runs one scan or detection and reports back.
func (s *Server) handleWebSocketRequest(ctx context.Context, conn WebSocketConnWriter, req WebSocketScanRequest) {
	requestID := req.RequestID
	if requestID == "" {
		requestID = strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	if req.Type == "" {
		req.Type = "scan"
	}
	if req.Type != "scan" && req.Type != "detect" {
		s.sendWebSocketError(conn, requestID, "invalid_request", "Unsupported request type: "+req.Type)
		return
	}
	format := s.defaultFormat
	if req.Format != "" {
		format = normalizeFormat(req.Format)
		if format == "" {
			s.sendWebSocketError(conn, requestID, "invalid_request", "Unsupported format: "+req.Format)
			return
		}
	}
	if len(req.Image) == 0 {
		s.sendWebSocketError(conn, requestID, "invalid_request", "No image data provided")
		return
	}
	if s.pipeline == nil {
		s.sendWebSocketError(conn, requestID, "unavailable", "Scan pipeline not initialized")
		return
	}

	img, err := utils.DecodeImage(bytes.NewReader(req.Image))
	if err != nil {
		s.sendWebSocketError(conn, requestID, string(docerr.KindInvalidInput), fmt.Sprintf("Failed to decode image: %v", err))
		return
	}

	s.sendWebSocketResponse(conn, WebSocketScanResponse{
		Type:      req.Type,
		Status:    "processing",
		RequestID: requestID,
	})

	if s.timeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, secondsDuration(s.timeoutSec))
		defer cancel()
	}

	start := time.Now()
	var res *pipeline.ScanResult
	if req.Type == "detect" {
		res, err = s.pipeline.Detect(ctx, img)
	} else {
		res, err = s.pipeline.Scan(ctx, img)
	}
	observeScan("websocket_"+req.Type, res, err, time.Since(start))

	resp := WebSocketScanResponse{Type: req.Type, RequestID: requestID, Progress: 1}
	if res != nil {
		rep := res.Report("")
		resp.Result = &rep
	}
	switch {
	case errors.Is(err, docerr.ErrNoDocument) || (err == nil && !res.Found()):
		resp.Status = "not_found"
	case err != nil:
		resp.Status = "error"
		resp.Error = err.Error()
		resp.ErrorType = string(docerr.KindOf(err))
	default:
		resp.Status = "completed"
	}

	var body image.Image
	switch {
	case req.Overlay && res != nil:
		body, format = detector.DrawDetection(img, res.Detection), formatPNG
	case resp.Status == "completed" && req.Type == "scan" && format != formatJSON:
		body = res.Document
	}
	if body != nil {
		resp.Format = format
	}
	s.sendWebSocketResponse(conn, resp)

	if body != nil {
		payload, err := s.encodeBinary(body, format)
		if err != nil {
			s.sendWebSocketError(conn, requestID, string(docerr.KindInternal), err.Error())
			return
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
			slog.Error("Failed to send WebSocket image", "error", err)
			return
		}
		websocketMessagesTotal.WithLabelValues("sent").Inc()
	}
}

// encodeBinary encodes img as PNG, JPEG or a one-page PDF.
func (s *Server) encodeBinary(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case formatJPEG:
		err = utils.EncodeImage(&buf, img, imaging.JPEG, s.jpegQuality)
	case formatPDF:
		err = pdf.WriteDocument(&buf, img)
	default:
		err = utils.EncodeImage(&buf, img, imaging.PNG, 0)
	}
	return buf.Bytes(), err
}

// sendWebSocketResponse sends a response message over WebSocket.
func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, response WebSocketScanResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendWebSocketError sends an error message over WebSocket.
func (s *Server) sendWebSocketError(conn WebSocketConnWriter, requestID, errorType, message string) {
	s.sendWebSocketResponse(conn, WebSocketScanResponse{
		Type:      "error",
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
		RequestID: requestID,
	})
}
