package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/carewell-health/clinic-portal/internal/appointments"
	"github.com/carewell-health/clinic-portal/internal/clock"
	"github.com/carewell-health/clinic-portal/internal/interaction"
	"github.com/carewell-health/clinic-portal/internal/observability/metrics"
	"github.com/carewell-health/clinic-portal/internal/queue"
	"github.com/carewell-health/clinic-portal/internal/session"
	"github.com/carewell-health/clinic-portal/pkg/logging"
)

// DurationPredictor estimates how long an interaction is expected to take.
type DurationPredictor interface {
	PredictDurationSeconds(ctx context.Context, department, priority, appointmentType string) (int64, error)
}

// SessionHandler exposes the active timing session over HTTP.
type SessionHandler struct {
	store        *session.Store
	interactions interaction.Repository
	appointments appointments.Repository
	predictor    DurationPredictor
	metrics      *metrics.LifecycleMetrics
	clock        clock.Clock
	logger       *logging.Logger
}

// SessionConfig carries the dependencies for SessionHandler.
type SessionConfig struct {
	Store        *session.Store
	Interactions interaction.Repository
	Appointments appointments.Repository
	Predictor    DurationPredictor
	Metrics      *metrics.LifecycleMetrics
	Clock        clock.Clock
	Logger       *logging.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(cfg SessionConfig) *SessionHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	return &SessionHandler{
		store:        cfg.Store,
		interactions: cfg.Interactions,
		appointments: cfg.Appointments,
		predictor:    cfg.Predictor,
		metrics:      cfg.Metrics,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
	}
}

// SessionResponse is the active session plus live elapsed figures computed
// at response time.
type SessionResponse struct {
	*session.ActiveSession
	PhaseElapsedSeconds   int64 `json:"phase_elapsed_seconds"`
	SessionElapsedSeconds int64 `json:"session_elapsed_seconds"`
}

// Get returns the current session, or 204 when none is active.
// GET /api/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := h.store.Get()
	if sess == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, h.respond(sess))
}

// StartSessionPayload is the request body for starting a session. Either an
// interaction id or an appointment id identifies the target; the queue's
// "start consultation" action sends the appointment id.
type StartSessionPayload struct {
	InteractionID string `json:"interaction_id,omitempty"`
	AppointmentID string `json:"appointment_id,omitempty"`
	Phase         string `json:"phase,omitempty"`
}

// Start begins timing an interaction. Any previous non-completed session is
// overwritten. Starting by appointment requires a prior check-in; the
// action never implicitly creates an interaction.
// POST /api/session/start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var payload StartSessionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	in, err := h.resolveInteraction(r, payload)
	if err != nil {
		switch {
		case errors.Is(err, queue.ErrCheckInRequired), errors.Is(err, queue.ErrActionNotAllowed):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, interaction.ErrNotFound):
			http.Error(w, "interaction not found", http.StatusNotFound)
		default:
			h.logger.Error("failed to load interaction", "error", err)
			http.Error(w, "failed to load interaction", http.StatusInternalServerError)
		}
		return
	}
	if in.Phase.Terminal() {
		http.Error(w, "interaction already completed", http.StatusConflict)
		return
	}

	init := session.Init{
		InteractionID: in.ID,
		AppointmentID: in.AppointmentID,
		PatientID:     in.PatientID,
		Department:    in.Department,
		CurrentPhase:  in.Phase,
	}
	if payload.Phase != "" {
		init.CurrentPhase = interaction.Phase(payload.Phase)
	}

	if appt, err := h.appointments.GetByID(r.Context(), in.AppointmentID); err == nil {
		init.PatientName = appt.PatientName
		init.Priority = appt.Priority
		init.AppointmentType = appt.AppointmentType
	} else if !errors.Is(err, appointments.ErrNotFound) {
		h.logger.Error("failed to load appointment for session", "appointment_id", in.AppointmentID, "error", err)
	}

	// Best effort: a session without an estimate simply never alerts.
	if h.predictor != nil {
		if secs, err := h.predictor.PredictDurationSeconds(r.Context(), init.Department, init.Priority, init.AppointmentType); err == nil {
			init.PredictedDurationSeconds = &secs
		} else {
			h.logger.Debug("duration estimate unavailable", "interaction_id", in.ID, "error", err)
		}
	}

	sess, err := h.store.Start(r.Context(), init)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrStartCompleted):
			http.Error(w, "interaction already completed", http.StatusConflict)
		case errors.Is(err, interaction.ErrUnknownPhase):
			http.Error(w, "unknown phase", http.StatusBadRequest)
		default:
			h.logger.Error("failed to start session", "interaction_id", in.ID, "error", err)
			http.Error(w, "failed to start session", http.StatusInternalServerError)
		}
		return
	}

	h.metrics.SetSessionActive(true)
	writeJSON(w, http.StatusCreated, h.respond(sess))
}

// resolveInteraction finds the interaction a start request targets. Lookup
// by appointment enforces queue eligibility: no interaction on file means
// the patient never checked in, and the start fails fast.
func (h *SessionHandler) resolveInteraction(r *http.Request, payload StartSessionPayload) (*interaction.Interaction, error) {
	if payload.InteractionID != "" {
		return h.interactions.GetByID(r.Context(), payload.InteractionID)
	}

	in, err := h.interactions.GetByAppointment(r.Context(), payload.AppointmentID)
	if errors.Is(err, interaction.ErrNotFound) {
		return nil, queue.StartEligibility(nil)
	}
	if err != nil {
		return nil, err
	}
	if err := queue.StartEligibility(in); err != nil {
		return nil, err
	}
	return in, nil
}

// End clears the active session.
// POST /api/session/end
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	if err := h.store.End(r.Context()); err != nil {
		if errors.Is(err, session.ErrNoSession) {
			http.Error(w, "no active session", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to end session", "error", err)
		http.Error(w, "failed to end session", http.StatusInternalServerError)
		return
	}
	h.metrics.SetSessionActive(false)
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) respond(sess *session.ActiveSession) SessionResponse {
	resp := SessionResponse{ActiveSession: sess}
	if !sess.Completed() {
		resp.PhaseElapsedSeconds = clock.ElapsedSeconds(sess.PhaseStartTime, h.clock.Now())
	}
	resp.SessionElapsedSeconds = sess.TotalElapsedSeconds + resp.PhaseElapsedSeconds
	return resp
}
