//go:build linux

package rapl

import "errors"

var (
	// ErrUnavailable is returned when the powercap hierarchy is missing or
	// exposes no readable package zone.
	ErrUnavailable = errors.New("rapl: powercap not available")
	// ErrBadInterval is returned when no time passed between two samples.
	ErrBadInterval = errors.New("rapl: sample interval must be > 0")
)
