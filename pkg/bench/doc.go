// Package bench times a training workload while sampling device power and
// turns the measurements into an efficiency report (see pkg/efficiency).
//
// Overview
//
//   - Workload interface:
//     Name() string
//     Run(ctx context.Context) error
//
//     Command wraps an external training command (exec with pass-through
//     stdio); Func adapts an in-process function. Run must honor ctx:
//     Measure cancels the workload through it on interrupt.
//
//   - PowerSource interface:
//     Name() string
//     Sample(ctx context.Context) (types.Watts, error)
//
//     gpu.Source reads nvidia-smi, rapl.Meter reads powercap counters, and
//     Static carries a fixed board assumption from a device profile. Static
//     is the fallback for hosts without local telemetry (TPU workers,
//     remote accelerators).
//
//   - Measure(ctx, workload, opts) runs the workload to completion, samples
//     the source every opts.Interval, and derives the report from
//
//     elapsed  = wall clock of the workload
//     power    = mean of post-warmup readings (EMA-smoothed when
//     opts.EMAAlpha > 0)
//     samples  = opts.Samples (the workload cannot report it)
//
//   - Errors (errs.go):
//     ErrNoWorkload : Measure called without a workload
//     ErrNoSource   : Measure called without a power source
//     ErrNoSamples  : no reading landed during or after the run
//
// A run shorter than one interval records zero ticks; Measure then takes a
// single direct reading after the workload exits, which for counter-backed
// sources (rapl) still covers the whole window.
//
// Example: measure a training script against live GPU power
//
//	/*
//	w := bench.NewCommand("python", "train.py", "--epochs", "3")
//	res, err := bench.Measure(ctx, w, bench.Options{
//	    Samples:  12_000_000,
//	    Ops:      types.Ops(1.2e15),
//	    Source:   gpu.Source{},
//	    Interval: time.Second,
//	    EMAAlpha: 0.5,
//	    Warmup:   1,
//	})
//	if err != nil { log.Fatal(err) }
//	fmt.Printf("%s: %s, %.0f samples/s\n",
//	    res.Label, res.Report.Energy.Total.Humanized(), res.Report.Throughput)
//	*/
//
// Testing guidance
//
//   - Use Func workloads and Static (or hand-rolled) sources; ticker counts
//     are timing-dependent, so assert on values that hold for any count
//     (means of constants, ranges).
//   - Command tests need a POSIX shell; skip on Windows.
//
// Package import path: github.com/ja7ad/efficiency/pkg/bench
package bench
