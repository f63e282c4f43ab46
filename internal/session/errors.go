package session

import "errors"

var (
	// ErrNoSession is returned when an operation needs an active session.
	ErrNoSession = errors.New("no active session")

	// ErrMissingInteraction is returned when a session init has no interaction.
	ErrMissingInteraction = errors.New("interaction_id is required")

	// ErrStartCompleted is returned when a session init names the terminal phase.
	ErrStartCompleted = errors.New("cannot start a session in the completed phase")
)
