package models

import "errors"

// Shared error taxonomy. Repositories and services wrap these with %w so
// handlers can map them to HTTP statuses with errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrImport              = errors.New("import error")
	ErrUnknownEntityType   = errors.New("unknown entity type")
)
