package appointments

import (
	"strings"
	"time"
)

// Priority levels for an appointment. HIGH and URGENT are visually flagged
// in the queue but never reorder it; check-in order stays authoritative.
const (
	PriorityRoutine = "ROUTINE"
	PriorityHigh    = "HIGH"
	PriorityUrgent  = "URGENT"
)

// Appointment is a scheduled visit, distinct from the clinical interaction
// it may give rise to at check-in.
type Appointment struct {
	ID              string    `json:"id"`
	PatientID       string    `json:"patient_id"`
	PatientName     string    `json:"patient_name"`
	Department      string    `json:"department"`
	Priority        string    `json:"priority"`
	AppointmentType string    `json:"appointment_type"`
	Status          string    `json:"status"`
	ScheduledFor    time.Time `json:"scheduled_for"`
	CreatedAt       time.Time `json:"created_at"`
}

// Flagged reports whether the appointment's priority warrants a visual flag.
func (a *Appointment) Flagged() bool {
	switch strings.ToUpper(a.Priority) {
	case PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// CreateAppointmentRequest is the payload for scheduling an appointment.
type CreateAppointmentRequest struct {
	PatientID       string    `json:"patient_id"`
	PatientName     string    `json:"patient_name"`
	Department      string    `json:"department"`
	Priority        string    `json:"priority"`
	AppointmentType string    `json:"appointment_type"`
	ScheduledFor    time.Time `json:"scheduled_for"`
}

// Validate checks required fields on a scheduling request.
func (r *CreateAppointmentRequest) Validate() error {
	if strings.TrimSpace(r.PatientID) == "" {
		return ErrMissingPatient
	}
	if r.ScheduledFor.IsZero() {
		return ErrMissingSchedule
	}
	return nil
}
