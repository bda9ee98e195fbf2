package repository

import "errors"

// Common repository errors that can be checked with errors.Is()
var (
	// ErrNotFound is returned when a flight record or id mapping is absent
	ErrNotFound = errors.New("aircraft not found")

	// ErrConflict is returned when an aircraft id is already assigned to a different flight
	ErrConflict = errors.New("aircraft id already in use")

	// ErrInvalidEntity is returned when an instance fails validation (e.g. missing id on save)
	ErrInvalidEntity = errors.New("invalid aircraft instance")

	// ErrNoModelsConfigured is returned when a random model is requested but the catalog is empty
	ErrNoModelsConfigured = errors.New("no aircraft models configured")

	// ErrUnknownModel is returned when a requested model is absent from the catalog
	ErrUnknownModel = errors.New("unknown aircraft model")
)
