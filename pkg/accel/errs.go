package accel

import "errors"

var (
	// ErrUnknownProfile indicates a profile lookup by a key that exists
	// neither in the builtins nor in the loaded profile file.
	ErrUnknownProfile = errors.New("accel: unknown profile")

	// ErrBadProfile indicates a profile entry with a missing or
	// non-positive power figure.
	ErrBadProfile = errors.New("accel: invalid profile")

	// ErrBadClass indicates an unrecognized accelerator class token.
	ErrBadClass = errors.New("accel: invalid class")
)
