package interaction

import "time"

// Phase is one ordered stage of a patient interaction. Transitions only
// move forward one step at a time; PhaseCompleted is terminal.
type Phase string

const (
	PhaseCheckedIn         Phase = "CHECKED_IN"
	PhaseVitalsInProgress  Phase = "VITALS_IN_PROGRESS"
	PhaseVitalsComplete    Phase = "VITALS_COMPLETE"
	PhaseConsultInProgress Phase = "INTERACTION_IN_PROGRESS"
	PhaseCompleted         Phase = "COMPLETED"
)

// Phases lists every phase in lifecycle order.
var Phases = []Phase{
	PhaseCheckedIn,
	PhaseVitalsInProgress,
	PhaseVitalsComplete,
	PhaseConsultInProgress,
	PhaseCompleted,
}

// Valid reports whether p is a member of the closed phase set.
func (p Phase) Valid() bool {
	switch p {
	case PhaseCheckedIn, PhaseVitalsInProgress, PhaseVitalsComplete, PhaseConsultInProgress, PhaseCompleted:
		return true
	}
	return false
}

// Terminal reports whether p admits no further transitions.
func (p Phase) Terminal() bool { return p == PhaseCompleted }

// Advance maps a phase to its successor in the fixed lifecycle order.
// It owns no state: callers (the session store, the interaction handler)
// apply the result. Advancing past PhaseCompleted returns ErrPhaseTerminal;
// an unknown phase returns ErrUnknownPhase.
func Advance(current Phase) (Phase, error) {
	switch current {
	case PhaseCheckedIn:
		return PhaseVitalsInProgress, nil
	case PhaseVitalsInProgress:
		return PhaseVitalsComplete, nil
	case PhaseVitalsComplete:
		return PhaseConsultInProgress, nil
	case PhaseConsultInProgress:
		return PhaseCompleted, nil
	case PhaseCompleted:
		return "", ErrPhaseTerminal
	default:
		return "", ErrUnknownPhase
	}
}

// PhaseRecord captures one completed or in-flight stretch of a phase.
// DurationSeconds is frozen when EndTime is set and never recomputed.
type PhaseRecord struct {
	Phase           Phase      `json:"phase"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationSeconds *int64     `json:"duration_seconds,omitempty"`
}

// Close freezes the record at the given instant.
func (r *PhaseRecord) Close(at time.Time, durationSeconds int64) {
	end := at
	r.EndTime = &end
	r.DurationSeconds = &durationSeconds
}
