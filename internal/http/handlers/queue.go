package handlers

import (
	"net/http"
	"time"

	"github.com/carewell-health/clinic-portal/internal/queue"
	"github.com/carewell-health/clinic-portal/pkg/logging"
)

// QueueHandler serves the derived waiting queue.
type QueueHandler struct {
	refresher *queue.Refresher
	logger    *logging.Logger
}

// NewQueueHandler creates a new queue handler.
func NewQueueHandler(refresher *queue.Refresher, logger *logging.Logger) *QueueHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &QueueHandler{refresher: refresher, logger: logger}
}

// QueueResponse is the queue snapshot returned to staff.
type QueueResponse struct {
	Entries     []queue.Entry `json:"entries"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// List returns the current queue, optionally forcing a reconciliation first.
// GET /api/queue?department=CARDIOLOGY&refresh=true
func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") == "true" {
		h.refresher.Refresh(r.Context())
	}
	entries, generatedAt := h.refresher.Snapshot(r.URL.Query().Get("department"))
	writeJSON(w, http.StatusOK, QueueResponse{
		Entries:     entries,
		GeneratedAt: generatedAt,
	})
}
