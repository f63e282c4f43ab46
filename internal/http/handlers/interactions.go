package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carewell-health/clinic-portal/internal/appointments"
	"github.com/carewell-health/clinic-portal/internal/clock"
	"github.com/carewell-health/clinic-portal/internal/interaction"
	"github.com/carewell-health/clinic-portal/internal/notify"
	"github.com/carewell-health/clinic-portal/internal/observability/metrics"
	"github.com/carewell-health/clinic-portal/internal/queue"
	"github.com/carewell-health/clinic-portal/internal/session"
	"github.com/carewell-health/clinic-portal/pkg/logging"
)

// InteractionsHandler handles check-in and phase-advance endpoints.
type InteractionsHandler struct {
	interactions interaction.Repository
	appointments appointments.Repository
	store        *session.Store
	refresher    *queue.Refresher
	toasts       notify.ToastSink
	metrics      *metrics.LifecycleMetrics
	clock        clock.Clock
	logger       *logging.Logger
}

// InteractionsConfig carries the dependencies for InteractionsHandler.
type InteractionsConfig struct {
	Interactions interaction.Repository
	Appointments appointments.Repository
	Store        *session.Store
	Refresher    *queue.Refresher
	Toasts       notify.ToastSink
	Metrics      *metrics.LifecycleMetrics
	Clock        clock.Clock
	Logger       *logging.Logger
}

// NewInteractionsHandler creates a new interactions handler.
func NewInteractionsHandler(cfg InteractionsConfig) *InteractionsHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	return &InteractionsHandler{
		interactions: cfg.Interactions,
		appointments: cfg.Appointments,
		store:        cfg.Store,
		refresher:    cfg.Refresher,
		toasts:       cfg.Toasts,
		metrics:      cfg.Metrics,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
	}
}

// CheckInPayload is the request body for patient check-in.
type CheckInPayload struct {
	AppointmentID string `json:"appointment_id"`
}

// CheckIn creates a clinical interaction for a scheduled appointment.
// POST /api/interactions/checkin
func (h *InteractionsHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var payload CheckInPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.appointments.GetByID(r.Context(), payload.AppointmentID)
	if err != nil {
		if errors.Is(err, appointments.ErrNotFound) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load appointment", "appointment_id", payload.AppointmentID, "error", err)
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	req := &interaction.CheckInRequest{
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		Department:    appt.Department,
	}
	in, err := h.interactions.CheckIn(r.Context(), req, h.clock.Now())
	if err != nil {
		if errors.Is(err, interaction.ErrAlreadyCheckedIn) {
			http.Error(w, "patient already checked in", http.StatusConflict)
			return
		}
		h.logger.Error("check-in failed", "appointment_id", appt.ID, "error", err)
		http.Error(w, "check-in failed", http.StatusInternalServerError)
		return
	}

	h.metrics.ObservePhaseTransition(string(in.Phase))
	h.logger.Info("patient checked in",
		"interaction_id", in.ID,
		"appointment_id", in.AppointmentID,
		"department", in.Department,
	)
	if h.refresher != nil {
		h.refresher.Refresh(r.Context())
	}

	writeJSON(w, http.StatusCreated, in)
}

// Advance moves an interaction to its next lifecycle phase.
// POST /api/interactions/{interactionID}/advance
//
// When the active session tracks this interaction, the session advances
// first and its state is authoritative: a repository failure afterwards is
// reported as a toast but never rolls the session back.
func (h *InteractionsHandler) Advance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "interactionID")
	if id == "" {
		http.Error(w, "missing interactionID", http.StatusBadRequest)
		return
	}

	in, err := h.interactions.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, interaction.ErrNotFound) {
			http.Error(w, "interaction not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load interaction", "interaction_id", id, "error", err)
		http.Error(w, "failed to load interaction", http.StatusInternalServerError)
		return
	}

	var next interaction.Phase
	sess := h.store.Get()
	if sess != nil && sess.InteractionID == id {
		updated, err := h.store.Advance(r.Context())
		if err != nil {
			writeAdvanceError(w, err)
			return
		}
		next = updated.CurrentPhase
	} else {
		next, err = interaction.Advance(in.Phase)
		if err != nil {
			writeAdvanceError(w, err)
			return
		}
	}

	now := h.clock.Now()
	saved, err := h.interactions.UpdatePhase(r.Context(), id, next, now)
	if err != nil {
		// Local state wins: the phase change stands even when the write
		// behind it fails. Staff see a toast instead of a rolled-back timer.
		h.logger.Error("phase update not persisted, keeping local state",
			"interaction_id", id,
			"phase", string(next),
			"error", err,
		)
		if h.toasts != nil {
			_ = h.toasts.PushToast(r.Context(), notify.Toast{
				Severity: notify.SeverityWarning,
				Title:    "Sync issue",
				Message:  "Phase change saved locally; the server copy will catch up.",
			})
		}
		saved = in
		saved.ApplyPhase(next, now)
	}

	h.metrics.ObservePhaseTransition(string(next))
	h.logger.Info("interaction advanced",
		"interaction_id", id,
		"phase", string(next),
	)

	if next.Terminal() {
		if err := h.appointments.UpdateStatus(r.Context(), in.AppointmentID, "COMPLETED"); err != nil {
			h.logger.Error("failed to complete appointment", "appointment_id", in.AppointmentID, "error", err)
		}
	}
	if h.refresher != nil {
		h.refresher.Refresh(r.Context())
	}

	writeJSON(w, http.StatusOK, saved)
}

func writeAdvanceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, interaction.ErrPhaseTerminal):
		http.Error(w, "interaction already completed", http.StatusConflict)
	case errors.Is(err, interaction.ErrUnknownPhase):
		http.Error(w, "unknown phase", http.StatusBadRequest)
	case errors.Is(err, session.ErrNoSession):
		// The session ended between the lookup and the advance. The caller
		// retries against the interaction's own phase.
		http.Error(w, "no active session", http.StatusConflict)
	default:
		http.Error(w, "advance failed", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
