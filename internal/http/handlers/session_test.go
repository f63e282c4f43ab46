package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/carewell-health/clinic-portal/internal/interaction"
)

func newSessionHandler(f *fixture, predictor DurationPredictor) *SessionHandler {
	return NewSessionHandler(SessionConfig{
		Store:        f.store,
		Interactions: f.interactions,
		Appointments: f.appointments,
		Predictor:    predictor,
		Clock:        f.clock,
	})
}

func postStartSession(t *testing.T, h *SessionHandler, interactionID string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(StartSessionPayload{InteractionID: interactionID})
	req := httptest.NewRequest(http.MethodPost, "/api/session/start", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Start(rec, req)
	return rec
}

func TestSessionGetNoContentWhenIdle(t *testing.T) {
	f := newFixture(t)
	h := newSessionHandler(f, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
}

func TestSessionStartFromInteraction(t *testing.T) {
	f := newFixture(t)
	h := newSessionHandler(f, &stubPredictor{seconds: 1800})
	appt := f.scheduleAppointment(t, "Ada", "CARDIOLOGY", "URGENT")
	in := f.checkIn(t, appt)

	rec := postStartSession(t, h, in.ID)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var resp SessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.InteractionID != in.ID {
		t.Fatalf("expected interaction %s, got %s", in.ID, resp.InteractionID)
	}
	if resp.CurrentPhase != interaction.PhaseCheckedIn {
		t.Fatalf("expected phase %s, got %s", interaction.PhaseCheckedIn, resp.CurrentPhase)
	}
	if resp.PatientName != "Ada" {
		t.Fatalf("expected patient name from appointment, got %q", resp.PatientName)
	}
	if resp.PredictedDurationSeconds == nil || *resp.PredictedDurationSeconds != 1800 {
		t.Fatalf("expected predicted duration 1800, got %v", resp.PredictedDurationSeconds)
	}
}

func TestSessionStartWithoutPrediction(t *testing.T) {
	f := newFixture(t)
	h := newSessionHandler(f, &stubPredictor{err: errors.New("model offline")})
	appt := f.scheduleAppointment(t, "Ada", "GENERAL", "ROUTINE")
	in := f.checkIn(t, appt)

	rec := postStartSession(t, h, in.ID)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rec.Code)
	}

	var resp SessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.PredictedDurationSeconds != nil {
		t.Fatalf("expected no predicted duration, got %v", *resp.PredictedDurationSeconds)
	}
}

func TestSessionStartUnknownInteraction(t *testing.T) {
	f := newFixture(t)
	h := newSessionHandler(f, nil)

	if rec := postStartSession(t, h, "nope"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSessionStartByAppointmentRequiresCheckIn(t *testing.T) {
	f := newFixture(t)
	h := newSessionHandler(f, nil)
	appt := f.scheduleAppointment(t, "Ada", "GENERAL", "ROUTINE")

	body, _ := json.Marshal(StartSessionPayload{AppointmentID: appt.ID})
	req := httptest.NewRequest(http.MethodPost, "/api/session/start", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Start(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "must check in") {
		t.Fatalf("expected a must-check-in error, got %q", rec.Body.String())
	}
}

func TestSessionStartByAppointmentAfterCheckIn(t *testing.T) {
	f := newFixture(t)
	h := newSessionHandler(f, nil)
	appt := f.scheduleAppointment(t, "Ada", "GENERAL", "ROUTINE")
	in := f.checkIn(t, appt)

	body, _ := json.Marshal(StartSessionPayload{AppointmentID: appt.ID})
	req := httptest.NewRequest(http.MethodPost, "/api/session/start", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Start(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var resp SessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.InteractionID != in.ID {
		t.Fatalf("expected session for interaction %s, got %s", in.ID, resp.InteractionID)
	}
}

func TestSessionStartCompletedInteraction(t *testing.T) {
	f := newFixture(t)
	h := newSessionHandler(f, nil)
	appt := f.scheduleAppointment(t, "Ada", "GENERAL", "ROUTINE")
	in := f.checkIn(t, appt)

	ih := newInteractionsHandler(f, nil)
	for i := 0; i < 4; i++ {
		if rec := postAdvance(t, ih, in.ID); rec.Code != http.StatusOK {
			t.Fatalf("advance %d failed: %d", i, rec.Code)
		}
	}

	if rec := postStartSession(t, h, in.ID); rec.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, rec.Code)
	}
}

func TestSessionGetReportsLiveElapsed(t *testing.T) {
	f := newFixture(t)
	h := newSessionHandler(f, nil)
	appt := f.scheduleAppointment(t, "Ada", "GENERAL", "ROUTINE")
	in := f.checkIn(t, appt)

	if rec := postStartSession(t, h, in.ID); rec.Code != http.StatusCreated {
		t.Fatalf("start session failed: %d", rec.Code)
	}

	f.clock.Advance(95 * time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	rec := httptest.NewRecorder()
	h.Get(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp SessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.PhaseElapsedSeconds != 95 {
		t.Fatalf("expected 95s phase elapsed, got %d", resp.PhaseElapsedSeconds)
	}
	if resp.SessionElapsedSeconds != 95 {
		t.Fatalf("expected 95s session elapsed, got %d", resp.SessionElapsedSeconds)
	}
}

func TestSessionEnd(t *testing.T) {
	f := newFixture(t)
	h := newSessionHandler(f, nil)
	appt := f.scheduleAppointment(t, "Ada", "GENERAL", "ROUTINE")
	in := f.checkIn(t, appt)

	if rec := postStartSession(t, h, in.ID); rec.Code != http.StatusCreated {
		t.Fatalf("start session failed: %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/session/end", nil)
	rec := httptest.NewRecorder()
	h.End(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}

	// A second end has nothing to clear.
	rec = httptest.NewRecorder()
	h.End(rec, httptest.NewRequest(http.MethodPost, "/api/session/end", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}
