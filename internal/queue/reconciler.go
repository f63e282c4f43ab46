package queue

import (
	"errors"
	"sort"
	"time"

	"github.com/carewell-health/clinic-portal/internal/appointments"
	"github.com/carewell-health/clinic-portal/internal/clock"
	"github.com/carewell-health/clinic-portal/internal/interaction"
)

// Status is the derived place of a patient in today's flow.
type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusCheckedIn  Status = "CHECKED_IN"
	StatusInProgress Status = "INTERACTION_IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

var (
	// ErrCheckInRequired is returned when starting a consultation for a
	// patient who has not been checked in. The caller must check in first;
	// the action never implicitly creates an interaction.
	ErrCheckInRequired = errors.New("patient must check in before the consultation can start")

	// ErrActionNotAllowed is returned for actions invalid in the entry's
	// current status.
	ErrActionNotAllowed = errors.New("action not allowed in current status")
)

// Entry is one patient's derived row in the staff-facing queue. It is a
// recomputed view over the appointment and interaction collections, never
// stored.
type Entry struct {
	AppointmentID   string `json:"appointment_id"`
	InteractionID   string `json:"interaction_id,omitempty"`
	PatientID       string `json:"patient_id"`
	PatientName     string `json:"patient_name"`
	Department      string `json:"department"`
	Priority        string `json:"priority"`
	AppointmentType string `json:"appointment_type"`

	Status       Status     `json:"status"`
	ScheduledFor time.Time  `json:"scheduled_for"`
	CheckInTime  *time.Time `json:"check_in_time,omitempty"`

	PredictedDurationSeconds *int64 `json:"predicted_duration_seconds,omitempty"`
	WaitMinutes              int64  `json:"wait_minutes"`

	// Flagged marks HIGH/URGENT priority for visual emphasis only; it never
	// reorders the queue. Check-in order is the tie-break authority.
	Flagged bool `json:"flagged"`
}

// CanStartConsultation reports whether the "start consultation" action is
// valid for this entry.
func (e *Entry) CanStartConsultation() error {
	switch e.Status {
	case StatusCheckedIn:
		return nil
	case StatusScheduled:
		return ErrCheckInRequired
	default:
		return ErrActionNotAllowed
	}
}

// StartEligibility reports whether "start consultation" is valid given an
// appointment's interaction, using the same status derivation the queue
// rows use. A nil interaction means the patient was never checked in.
func StartEligibility(in *interaction.Interaction) error {
	e := Entry{Status: deriveStatus(in)}
	return e.CanStartConsultation()
}

// deriveStatus maps an appointment's (optional) interaction to a queue
// status. Checkout wins over consultation start, which wins over check-in.
func deriveStatus(in *interaction.Interaction) Status {
	switch {
	case in == nil:
		return StatusScheduled
	case in.CheckoutTime != nil:
		return StatusCompleted
	case in.ConsultStartTime != nil:
		return StatusInProgress
	default:
		return StatusCheckedIn
	}
}

// Build joins today's appointments with their interactions into queue
// entries. Ordering is by check-in time, earliest first; entries not yet
// checked in fall back to their scheduled time. Priority is advisory and
// never reorders entries.
func Build(appts []*appointments.Appointment, ins []*interaction.Interaction, now time.Time) []Entry {
	byAppointment := make(map[string]*interaction.Interaction, len(ins))
	for _, in := range ins {
		byAppointment[in.AppointmentID] = in
	}

	entries := make([]Entry, 0, len(appts))
	for _, appt := range appts {
		in := byAppointment[appt.ID]
		entry := Entry{
			AppointmentID:   appt.ID,
			PatientID:       appt.PatientID,
			PatientName:     appt.PatientName,
			Department:      appt.Department,
			Priority:        appt.Priority,
			AppointmentType: appt.AppointmentType,
			Status:          deriveStatus(in),
			ScheduledFor:    appt.ScheduledFor,
			Flagged:         appt.Flagged(),
		}
		if in != nil {
			entry.InteractionID = in.ID
			checkIn := in.CheckInTime
			entry.CheckInTime = &checkIn
			if entry.Status != StatusCompleted {
				entry.WaitMinutes = clock.ElapsedMinutes(checkIn, now)
			}
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].orderKey().Before(entries[j].orderKey())
	})
	return entries
}

func (e *Entry) orderKey() time.Time {
	if e.CheckInTime != nil {
		return *e.CheckInTime
	}
	return e.ScheduledFor
}
