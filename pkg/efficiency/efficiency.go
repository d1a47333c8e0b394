// Package efficiency converts timing and device-power figures for completed
// training runs into energy, throughput, and compute-efficiency reports.
// All estimators are pure functions over a TrainingRun; they either return
// defined numbers or an error, never Inf/NaN.
package efficiency

import (
	"fmt"

	"github.com/ja7ad/efficiency/pkg/types"
)

// Validate reports whether the run's required scalars allow derived rates.
// Elapsed time, sample count, and power must all be positive; Ops and
// PeakOpsPerSec are optional and may be zero.
func (r TrainingRun) Validate() error {
	if !(r.ElapsedSec > 0) {
		return fmt.Errorf("%w: elapsed %v s, must be > 0", ErrInvalidMeasurement, r.ElapsedSec)
	}
	if r.Samples == 0 {
		return fmt.Errorf("%w: zero samples processed", ErrInvalidMeasurement)
	}
	if !(r.Power > 0) {
		return fmt.Errorf("%w: power %v W, must be > 0", ErrInvalidMeasurement, float64(r.Power))
	}
	return nil
}

// EstimateEnergy derives total energy, kWh, and per-sample energy:
//
//	E_total = P * t
//	E_kwh   = E_total / 3_600_000
//	E_smpl  = E_total / samples
func EstimateEnergy(run TrainingRun) (Energy, error) {
	if err := run.Validate(); err != nil {
		return Energy{}, err
	}
	total := types.Joules(float64(run.Power) * run.ElapsedSec)
	return Energy{
		Total:     total,
		TotalKWh:  total.KWh(),
		PerSample: types.Joules(float64(total) / float64(run.Samples)),
	}, nil
}

// EstimateThroughput derives samples processed per second.
func EstimateThroughput(run TrainingRun) (float64, error) {
	if err := run.Validate(); err != nil {
		return 0, err
	}
	return float64(run.Samples) / run.ElapsedSec, nil
}

// EstimateCompute derives ops/s and ops/J. It fails with ErrNoOps when the
// run recorded no operation count; use Estimate to omit the section instead.
func EstimateCompute(run TrainingRun) (Compute, error) {
	if err := run.Validate(); err != nil {
		return Compute{}, err
	}
	if run.Ops == 0 {
		return Compute{}, ErrNoOps
	}
	opsPerSec := float64(run.Ops) / run.ElapsedSec
	c := Compute{
		OpsPerSec:   opsPerSec,
		OpsPerJoule: opsPerSec / float64(run.Power),
	}
	if run.PeakOpsPerSec > 0 {
		c.PeakUtilization = opsPerSec / run.PeakOpsPerSec
	}
	return c, nil
}

// Estimate derives the full report for a run. The compute section is
// omitted (nil) when the run carries no operation count.
func Estimate(run TrainingRun) (Report, error) {
	energy, err := EstimateEnergy(run)
	if err != nil {
		return Report{}, err
	}
	throughput, err := EstimateThroughput(run)
	if err != nil {
		return Report{}, err
	}
	rep := Report{Energy: energy, Throughput: throughput}
	if run.Ops > 0 {
		c, err := EstimateCompute(run)
		if err != nil {
			return Report{}, err
		}
		rep.Compute = &c
	}
	return rep, nil
}

// Accumulator aggregates successive runs (per-epoch or per-trial
// measurements) into cumulative energy and overall rates. The zero value
// is ready to use.
type Accumulator struct {
	energyJ    float64
	elapsedSec float64
	samples    uint64
	ops        uint64
	peak       float64
	count      int
}

// Add validates the run, folds it into the aggregate, and returns the
// run's own report.
func (a *Accumulator) Add(run TrainingRun) (Report, error) {
	rep, err := Estimate(run)
	if err != nil {
		return Report{}, err
	}
	a.energyJ += float64(rep.Energy.Total)
	a.elapsedSec += run.ElapsedSec
	a.samples += run.Samples
	a.ops += uint64(run.Ops)
	if run.PeakOpsPerSec > a.peak {
		a.peak = run.PeakOpsPerSec
	}
	a.count++
	return rep, nil
}

// Runs returns the number of accumulated runs.
func (a *Accumulator) Runs() int { return a.count }

// TotalEnergy returns cumulative energy in joules over all runs.
func (a *Accumulator) TotalEnergy() types.Joules { return types.Joules(a.energyJ) }

// TotalSamples returns the total samples processed over all runs.
func (a *Accumulator) TotalSamples() uint64 { return a.samples }

// TotalElapsedSec returns the summed wall-clock seconds over all runs.
func (a *Accumulator) TotalElapsedSec() float64 { return a.elapsedSec }

// MeanPower returns the time-weighted mean power over all runs
// (cumulative energy over cumulative time). Zero before any runs.
func (a *Accumulator) MeanPower() types.Watts {
	if a.elapsedSec <= 0 {
		return 0
	}
	return types.Watts(a.energyJ / a.elapsedSec)
}

// Totals derives one report over the whole aggregate, treating the
// accumulated runs as a single long measurement at the mean power.
func (a *Accumulator) Totals() (Report, error) {
	if a.count == 0 {
		return Report{}, ErrNoRuns
	}
	return Estimate(TrainingRun{
		ElapsedSec:    a.elapsedSec,
		Samples:       a.samples,
		Power:         a.MeanPower(),
		Ops:           types.Ops(a.ops),
		PeakOpsPerSec: a.peak,
	})
}
