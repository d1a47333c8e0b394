package efficiency

import "errors"

var (
	// ErrInvalidMeasurement indicates that a TrainingRun carries a
	// non-positive duration, sample count, or power figure; derived
	// rates are undefined for such a record.
	ErrInvalidMeasurement = errors.New("efficiency: invalid measurement")

	// ErrNoOps indicates that a compute-efficiency estimate was requested
	// for a run that recorded no operation count.
	ErrNoOps = errors.New("efficiency: no operation count")

	// ErrNoRuns indicates that aggregate totals were requested from an
	// Accumulator that has not seen any runs.
	ErrNoRuns = errors.New("efficiency: no runs accumulated")
)
