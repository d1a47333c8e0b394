package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ja7ad/efficiency/pkg/efficiency"
	"github.com/ja7ad/efficiency/pkg/system/host"
	"github.com/ja7ad/efficiency/pkg/system/util"
	"github.com/ja7ad/efficiency/pkg/types"
)

// DefaultInterval is the sampling tick used when Options.Interval is unset.
const DefaultInterval = time.Second

// Options configures one measured run.
type Options struct {
	// Samples is the number of training samples the workload processes.
	// Required; the workload itself cannot report it.
	Samples uint64
	// Ops is the total operation count when known (0 = unknown).
	Ops types.Ops
	// Peak is the device's rated peak ops/s (0 = unknown).
	Peak float64

	// Source provides power readings during the run. Required.
	Source PowerSource
	// Interval between power samples; DefaultInterval when unset.
	Interval time.Duration
	// EMAAlpha in (0,1] smooths readings; 0 keeps them raw.
	EMAAlpha float64
	// Warmup is the number of initial ticks excluded from the mean.
	Warmup int

	// Label overrides the workload name in the result.
	Label string
	// OnTick observes every power sample, warmup included.
	OnTick func(Tick)
}

// Tick is one observed power sample during a run.
type Tick struct {
	Seq      int // 1-based
	At       time.Time
	Raw      types.Watts
	Smoothed types.Watts
	Cum      types.Joules // running smoothed-energy integral, display only
	Warmup   bool         // excluded from the mean power
}

// Result records one measured run: provenance, the derived TrainingRun,
// and its efficiency report.
type Result struct {
	RunID    uuid.UUID              `json:"run_id"`
	Label    string                 `json:"label"`
	Started  time.Time              `json:"started"`
	Finished time.Time              `json:"finished"`
	Host     host.Summary           `json:"host"`
	Source   string                 `json:"power_source"`
	Ticks    int                    `json:"power_samples"`
	Run      efficiency.TrainingRun `json:"run"`
	Report   efficiency.Report      `json:"report"`
}

// Measure runs the workload to completion while sampling power on a ticker,
// then folds wall time, sample count, and mean measured power into an
// efficiency report.
//
// The mean excludes warmup ticks. Failed source reads skip their tick; a
// run that finishes before any reading lands (or whose every tick failed)
// gets one direct post-run reading, and only if that also fails does
// Measure give up with ErrNoSamples.
func Measure(ctx context.Context, w Workload, opts Options) (Result, error) {
	if w == nil {
		return Result{}, ErrNoWorkload
	}
	if opts.Source == nil {
		return Result{}, ErrNoSource
	}
	if opts.Samples == 0 {
		return Result{}, fmt.Errorf("%w: sample count not set", efficiency.ErrInvalidMeasurement)
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	alpha := util.Clamp01(opts.EMAAlpha)

	label := opts.Label
	if label == "" {
		label = w.Name()
	}

	res := Result{
		RunID:   uuid.New(),
		Label:   label,
		Source:  opts.Source.Name(),
		Host:    host.Collect(),
		Started: time.Now(),
	}

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		ema   = util.NewEMA(alpha)
		sumW  float64
		good  int
		ticks int
		cumJ  float64
	)

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
			<-done // workload sees the same ctx and unwinds
			break loop

		case runErr = <-done:
			break loop

		case at := <-ticker.C:
			watts, err := opts.Source.Sample(ctx)
			if err != nil {
				continue
			}
			ticks++

			smoothed := float64(watts)
			if alpha > 0 {
				smoothed = ema.Next(smoothed)
			}
			warm := ticks <= opts.Warmup
			if !warm {
				sumW += smoothed
				good++
			}
			cumJ += smoothed * interval.Seconds()

			if opts.OnTick != nil {
				opts.OnTick(Tick{
					Seq:      ticks,
					At:       at,
					Raw:      watts,
					Smoothed: types.Watts(smoothed),
					Cum:      types.Joules(cumJ),
					Warmup:   warm,
				})
			}
		}
	}
	res.Finished = time.Now()
	res.Ticks = good

	if runErr != nil {
		return res, fmt.Errorf("workload %s: %w", label, runErr)
	}

	mean := 0.0
	switch {
	case good > 0:
		mean = sumW / float64(good)
	default:
		watts, err := opts.Source.Sample(ctx)
		if err != nil {
			return res, fmt.Errorf("%w: source %s", ErrNoSamples, res.Source)
		}
		mean = float64(watts)
		res.Ticks = 1
	}

	res.Run = efficiency.TrainingRun{
		ElapsedSec:    res.Finished.Sub(res.Started).Seconds(),
		Samples:       opts.Samples,
		Power:         types.Watts(mean),
		Ops:           opts.Ops,
		PeakOpsPerSec: opts.Peak,
	}

	rep, err := efficiency.Estimate(res.Run)
	if err != nil {
		return res, err
	}
	res.Report = rep

	return res, nil
}
