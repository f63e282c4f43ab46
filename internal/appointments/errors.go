package appointments

import "errors"

var (
	// ErrNotFound is returned when an appointment does not exist.
	ErrNotFound = errors.New("appointment not found")

	// ErrMissingPatient is returned when a scheduling request has no patient.
	ErrMissingPatient = errors.New("patient_id is required")

	// ErrMissingSchedule is returned when a scheduling request has no time.
	ErrMissingSchedule = errors.New("scheduled_for is required")
)
