package events

import "time"

type SessionStartedV1 struct {
	EventID       string    `json:"event_id"`
	InteractionID string    `json:"interaction_id"`
	AppointmentID string    `json:"appointment_id"`
	PatientID     string    `json:"patient_id"`
	Department    string    `json:"department"`
	Phase         string    `json:"phase"`
	StartedAt     time.Time `json:"started_at"`
}

// SessionDiscardedV1 is emitted when starting a session overwrites one that
// was still active. The overwrite itself is allowed; this event makes it
// observable instead of silent.
type SessionDiscardedV1 struct {
	EventID             string    `json:"event_id"`
	InteractionID       string    `json:"interaction_id"`
	Phase               string    `json:"phase"`
	TotalElapsedSeconds int64     `json:"total_elapsed_seconds"`
	DiscardedAt         time.Time `json:"discarded_at"`
}

type PhaseAdvancedV1 struct {
	EventID              string    `json:"event_id"`
	InteractionID        string    `json:"interaction_id"`
	FromPhase            string    `json:"from_phase"`
	ToPhase              string    `json:"to_phase"`
	PhaseDurationSeconds int64     `json:"phase_duration_seconds"`
	TotalElapsedSeconds  int64     `json:"total_elapsed_seconds"`
	OccurredAt           time.Time `json:"occurred_at"`
}

// SessionFinishedV1 carries the true total duration of a completed
// interaction back to analytics and notes collaborators.
type SessionFinishedV1 struct {
	EventID             string    `json:"event_id"`
	InteractionID       string    `json:"interaction_id"`
	AppointmentID       string    `json:"appointment_id"`
	TotalElapsedSeconds int64     `json:"total_elapsed_seconds"`
	FinishedAt          time.Time `json:"finished_at"`
}
