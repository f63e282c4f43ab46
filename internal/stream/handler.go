// Package stream pushes live timer, toast, and audio-cue frames to staff
// browsers over a WebSocket.
package stream

import (
	"net/http"

	"golang.org/x/net/websocket"

	"github.com/carewell-health/clinic-portal/internal/notify"
	"github.com/carewell-health/clinic-portal/pkg/logging"
)

// Handler serves the live frame stream.
type Handler struct {
	broadcaster *notify.Broadcaster
	logger      *logging.Logger
}

// NewHandler creates a stream handler fed by the given broadcaster.
func NewHandler(broadcaster *notify.Broadcaster, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{broadcaster: broadcaster, logger: logger}
}

type inboundFrame struct {
	Type string `json:"type"` // "ping"
}

type pongFrame struct {
	Type string `json:"type"`
}

// HandleWebSocket upgrades to WebSocket and streams frames until the client
// disconnects.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	frames, unregister := h.broadcaster.Register()
	defer unregister()

	h.logger.Info("stream: connection opened", "remote_ip", r.RemoteAddr)

	// Reader goroutine: answers pings and signals disconnect. The stream is
	// otherwise one-way.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg inboundFrame
			if err := websocket.JSON.Receive(conn, &msg); err != nil {
				return
			}
			if msg.Type == "ping" {
				_ = websocket.JSON.Send(conn, pongFrame{Type: "pong"})
			}
		}
	}()

	for {
		select {
		case <-done:
			h.logger.Debug("stream: connection closed", "remote_ip", r.RemoteAddr)
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			if err := websocket.JSON.Send(conn, frame); err != nil {
				h.logger.Debug("stream: send failed", "error", err)
				return
			}
		}
	}
}
