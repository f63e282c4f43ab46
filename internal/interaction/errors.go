package interaction

import "errors"

var (
	// ErrPhaseTerminal is returned when advancing a completed interaction.
	// Callers must not retry.
	ErrPhaseTerminal = errors.New("interaction already completed")

	// ErrUnknownPhase is returned for a phase outside the closed set.
	ErrUnknownPhase = errors.New("unknown interaction phase")

	// ErrNotFound is returned when an interaction does not exist.
	ErrNotFound = errors.New("interaction not found")

	// ErrMissingAppointment is returned when a check-in carries no appointment.
	ErrMissingAppointment = errors.New("appointment_id is required")

	// ErrMissingPatient is returned when a check-in carries no patient.
	ErrMissingPatient = errors.New("patient_id is required")

	// ErrAlreadyCheckedIn is returned when an appointment already has an interaction.
	ErrAlreadyCheckedIn = errors.New("appointment already checked in")
)
