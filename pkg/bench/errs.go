package bench

import "errors"

var (
	// ErrNoWorkload is returned when Measure is called without a workload.
	ErrNoWorkload = errors.New("bench: no workload")
	// ErrNoSource is returned when Measure is called without a power source.
	ErrNoSource = errors.New("bench: no power source")
	// ErrNoSamples is returned when the power source never produced a
	// usable reading over the whole run.
	ErrNoSamples = errors.New("bench: power source produced no readings")
)
