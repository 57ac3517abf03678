package service

import "errors"

var (
	// ErrNotFound covers unknown sessions, players and participations.
	// Handlers map it to 404.
	ErrNotFound = errors.New("not found")

	// ErrSessionNotActive rejects lifecycle and combat events aimed at
	// an ended or cancelled session.
	ErrSessionNotActive = errors.New("session is not active")

	// ErrValidation marks a request missing a required field. Raised
	// before any state change.
	ErrValidation = errors.New("validation failed")

	// ErrDemoDisabled gates the synthetic data endpoints behind the
	// demo-mode flag.
	ErrDemoDisabled = errors.New("demo mode is disabled")
)
