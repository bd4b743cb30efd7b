package views

import "errors"

var (
	// ErrSessionNotFound indicates an unknown, expired or foreign session id.
	ErrSessionNotFound = errors.New("views: session not found")
	// ErrInvalidUpdate indicates a malformed view update.
	ErrInvalidUpdate = errors.New("views: invalid update")
	// ErrAdminOnly indicates an entity that artists cannot open.
	ErrAdminOnly = errors.New("views: entity requires admin role")
)
