package prediction

import "errors"

var (
	// ErrNotConfigured indicates no estimate service base URL was set.
	ErrNotConfigured = errors.New("prediction: estimate service not configured")

	// ErrNoEstimate indicates the service declined to predict a duration.
	ErrNoEstimate = errors.New("prediction: no estimate available")
)
