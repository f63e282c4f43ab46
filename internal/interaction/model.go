package interaction

import (
	"strings"
	"time"
)

// Interaction represents one patient's clinical encounter, created at
// check-in and advanced phase by phase until checkout. The phase timestamp
// columns mirror the lifecycle: each is set exactly once, when the
// interaction enters the corresponding phase.
type Interaction struct {
	ID            string `json:"id"`
	AppointmentID string `json:"appointment_id"`
	PatientID     string `json:"patient_id"`
	Department    string `json:"department"`
	Phase         Phase  `json:"phase"`

	CheckInTime      time.Time  `json:"check_in_time"`
	VitalsStartTime  *time.Time `json:"vitals_start_time,omitempty"`
	VitalsEndTime    *time.Time `json:"vitals_end_time,omitempty"`
	ConsultStartTime *time.Time `json:"consult_start_time,omitempty"`
	CheckoutTime     *time.Time `json:"checkout_time,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// CheckInRequest is the payload for creating an interaction at check-in.
type CheckInRequest struct {
	AppointmentID string `json:"appointment_id"`
	PatientID     string `json:"patient_id"`
	Department    string `json:"department"`
}

// Validate checks required fields on a check-in request.
func (r *CheckInRequest) Validate() error {
	if strings.TrimSpace(r.AppointmentID) == "" {
		return ErrMissingAppointment
	}
	if strings.TrimSpace(r.PatientID) == "" {
		return ErrMissingPatient
	}
	return nil
}

// phaseTimestamp returns a pointer to the timestamp field recorded when the
// interaction entered the given phase. Check-in is the creation time and has
// no pointer slot.
func (i *Interaction) phaseTimestamp(p Phase) **time.Time {
	switch p {
	case PhaseVitalsInProgress:
		return &i.VitalsStartTime
	case PhaseVitalsComplete:
		return &i.VitalsEndTime
	case PhaseConsultInProgress:
		return &i.ConsultStartTime
	case PhaseCompleted:
		return &i.CheckoutTime
	default:
		return nil
	}
}

// ApplyPhase records entry into phase p at the given instant.
func (i *Interaction) ApplyPhase(p Phase, at time.Time) {
	i.Phase = p
	if slot := i.phaseTimestamp(p); slot != nil {
		t := at
		*slot = &t
	}
}
