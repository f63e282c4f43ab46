package session

import (
	"strings"
	"time"

	"github.com/carewell-health/clinic-portal/internal/interaction"
)

// ActiveSession is the single in-memory and persisted representation of
// whichever interaction is currently being timed. At most one exists per
// process; the Store owns it exclusively.
//
// TotalElapsedSeconds sums the frozen durations of completed phases only.
// The running phase is never included; its elapsed time is derived live
// from PhaseStartTime by the ticker.
type ActiveSession struct {
	InteractionID   string `json:"interaction_id"`
	AppointmentID   string `json:"appointment_id"`
	PatientID       string `json:"patient_id"`
	PatientName     string `json:"patient_name"`
	Department      string `json:"department"`
	Priority        string `json:"priority"`
	AppointmentType string `json:"appointment_type"`

	CurrentPhase        interaction.Phase `json:"current_phase"`
	StartTime           time.Time         `json:"start_time"`
	PhaseStartTime      time.Time         `json:"phase_start_time"`
	TotalElapsedSeconds int64             `json:"total_elapsed_seconds"`

	PredictedDurationSeconds *int64 `json:"predicted_duration_seconds,omitempty"`

	PhaseRecords []interaction.PhaseRecord `json:"phase_records"`
}

// Completed reports whether the session's interaction reached checkout.
func (s *ActiveSession) Completed() bool {
	return s != nil && s.CurrentPhase.Terminal()
}

// Clone returns a deep copy so callers cannot mutate the store's session.
func (s *ActiveSession) Clone() *ActiveSession {
	if s == nil {
		return nil
	}
	cp := *s
	if s.PredictedDurationSeconds != nil {
		v := *s.PredictedDurationSeconds
		cp.PredictedDurationSeconds = &v
	}
	cp.PhaseRecords = make([]interaction.PhaseRecord, len(s.PhaseRecords))
	for i, rec := range s.PhaseRecords {
		r := rec
		if rec.EndTime != nil {
			t := *rec.EndTime
			r.EndTime = &t
		}
		if rec.DurationSeconds != nil {
			d := *rec.DurationSeconds
			r.DurationSeconds = &d
		}
		cp.PhaseRecords[i] = r
	}
	return &cp
}

// Init describes the interaction a new session will track. CurrentPhase is
// caller-supplied: CHECKED_IN for a fresh check-in, INTERACTION_IN_PROGRESS
// when timing starts on a consultation already underway.
type Init struct {
	InteractionID            string            `json:"interaction_id"`
	AppointmentID            string            `json:"appointment_id"`
	PatientID                string            `json:"patient_id"`
	PatientName              string            `json:"patient_name"`
	Department               string            `json:"department"`
	Priority                 string            `json:"priority"`
	AppointmentType          string            `json:"appointment_type"`
	CurrentPhase             interaction.Phase `json:"current_phase"`
	PredictedDurationSeconds *int64            `json:"predicted_duration_seconds,omitempty"`
}

// Validate checks required fields on a session init.
func (i *Init) Validate() error {
	if strings.TrimSpace(i.InteractionID) == "" {
		return ErrMissingInteraction
	}
	if i.CurrentPhase == "" {
		i.CurrentPhase = interaction.PhaseCheckedIn
	}
	if !i.CurrentPhase.Valid() {
		return interaction.ErrUnknownPhase
	}
	if i.CurrentPhase.Terminal() {
		return ErrStartCompleted
	}
	return nil
}
