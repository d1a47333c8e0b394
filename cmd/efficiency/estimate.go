package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ja7ad/efficiency/pkg/efficiency"
	"github.com/ja7ad/efficiency/pkg/types"
)

// newEstimateCmd builds the pure-calculator face of the tool: no workload
// runs, the figures come straight from flags (or from a recorded log).
func newEstimateCmd() *cobra.Command {
	var (
		o       opts
		elapsed time.Duration
		epochs  int
		jsonOut string
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate efficiency from recorded run figures",
		Long: `Derives the efficiency report from figures you already have: how long
training ran, how many samples it consumed, and the device wattage
(explicit or from a profile). Nothing is executed or sampled.

With --epochs N the elapsed time and counts describe one epoch and the
report additionally aggregates N identical epochs.`,
		Example: `  efficiency estimate --elapsed 120s -n 12e6 --watts 400
  efficiency estimate --elapsed 100s -n 1e6 --ops 1e12 --profile gpu
  efficiency estimate --elapsed 30m -n 1.28e6 --profile a100 --profiles lab.yaml --epochs 90`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return estimate(o, elapsed, epochs, jsonOut)
		},
	}

	cmd.Flags().DurationVar(&elapsed, "elapsed", 0, "wall-clock duration of the run (required, e.g. 120s, 45m)")
	cmd.Flags().Float64VarP(&o.samples, "samples", "n", 0, "samples processed over --elapsed (required)")
	cmd.Flags().Float64Var(&o.ops, "ops", 0, "operations executed over --elapsed, enables ops/s and ops/J")
	cmd.Flags().IntVar(&epochs, "epochs", 1, "aggregate N identical epochs of these figures")
	addDeviceFlags(cmd, &o)
	cmd.Flags().StringVar(&jsonOut, "json", "", "write the report to JSON file")

	return cmd
}

func estimate(o opts, elapsed time.Duration, epochs int, jsonOut string) error {
	if elapsed <= 0 {
		return fmt.Errorf("--elapsed must be > 0")
	}
	if !(o.samples > 0) {
		return fmt.Errorf("--samples must be > 0")
	}
	if o.ops < 0 {
		return fmt.Errorf("--ops must be >= 0")
	}
	if epochs < 1 {
		return fmt.Errorf("--epochs must be >= 1")
	}

	prof, err := resolveProfile(o)
	if err != nil {
		return err
	}

	run := efficiency.TrainingRun{
		ElapsedSec:    elapsed.Seconds(),
		Samples:       uint64(o.samples),
		Power:         types.Watts(prof.PowerWatts),
		Ops:           types.Ops(o.ops),
		PeakOpsPerSec: prof.PeakOpsPerSec,
	}

	rep, err := efficiency.Estimate(run)
	if err != nil {
		return err
	}

	headerColor.Printf("estimate (%s):\n", deviceLine(prof))
	printReport(rep, run)

	if epochs > 1 {
		var acc efficiency.Accumulator
		for i := 0; i < epochs; i++ {
			if _, err := acc.Add(run); err != nil {
				return err
			}
		}
		totals, err := acc.Totals()
		if err != nil {
			return err
		}
		fmt.Println()
		headerColor.Printf("totals (%d epochs):\n", epochs)
		printReport(totals, efficiency.TrainingRun{
			ElapsedSec: acc.TotalElapsedSec(),
			Samples:    acc.TotalSamples(),
			Power:      acc.MeanPower(),
		})
		rep = totals
	}

	if jsonOut != "" {
		if err := writeJSON(jsonOut, document{Totals: rep}); err != nil {
			slog.Error("write json", "err", err)
		}
	}

	return nil
}
