// Package errs defines the domain error taxonomy shared by the order
// lifecycle, room registry, dispatcher and transport layers. Callers match
// with errors.Is and map to user-facing responses at the edge.
package errs

import "errors"

var (
	// ErrInvalidTransition is returned when an illegal state change is attempted.
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrUnauthorized is returned when the actor's role does not permit the
	// operation on this order or room.
	ErrUnauthorized = errors.New("not authorized")

	// ErrNotFound is returned for an unknown order or partner.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyAssigned is returned when an assignment race is lost: the
	// order already has a different delivery partner.
	ErrAlreadyAssigned = errors.New("order already assigned")

	// ErrInvalidLocation is returned for a malformed coordinate sample.
	ErrInvalidLocation = errors.New("invalid location sample")
)
