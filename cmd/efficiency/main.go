package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ja7ad/efficiency/pkg/accel"
	"github.com/ja7ad/efficiency/pkg/bench"
	"github.com/ja7ad/efficiency/pkg/efficiency"
	"github.com/ja7ad/efficiency/pkg/publish"
	"github.com/ja7ad/efficiency/pkg/system/gpu"
	"github.com/ja7ad/efficiency/pkg/system/host"
	"github.com/ja7ad/efficiency/pkg/system/util"
	"github.com/ja7ad/efficiency/pkg/types"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	labelColor  = color.New(color.Bold)
	goodColor   = color.New(color.FgGreen)
	badColor    = color.New(color.FgRed)

	pretty  bool
	noColor bool
)

type opts struct {
	// workload
	samples float64
	ops     float64
	repeat  int
	label   string

	// device / power
	profileKey string
	profiles   string
	watts      float64
	peak       float64
	source     string

	// sampling
	interval time.Duration
	ema      float64
	warmup   int

	// outputs
	csvPath  string
	jsonPath string
	htmlPath string
	pubURL   string
	pubToken string
}

// row is one power tick kept for the HTML report.
type row struct {
	Run      int       `json:"run"`
	At       time.Time `json:"time"`
	Raw      float64   `json:"power_w"`
	Smoothed float64   `json:"power_smooth_w"`
	CumJ     float64   `json:"e_cum_j"`
}

// document is the JSON export: every measured run plus the aggregate.
type document struct {
	Runs   []bench.Result    `json:"runs"`
	Totals efficiency.Report `json:"totals"`
}

func main() {
	var o opts

	root := &cobra.Command{
		Use:   "efficiency",
		Short: "Training-run efficiency estimation toolkit",
		Long: `The efficiency tool measures accelerator training runs (or estimates them
from recorded figures) and reports energy, throughput, and compute
efficiency: joules, kWh, J/sample, samples/s, ops/s, ops/J.

Power comes from live telemetry when the host has it (nvidia-smi, RAPL)
or from static device profiles (gpu=400W, tpu=250W, cpu=65W by default,
extendable via a YAML profile file).

Copyright (c) 2024 Javad Rajabzadeh Inc. All rights reserved.

* GitHub: https://github.com/ja7ad/efficiency

Examples:
  efficiency run -n 12e6 --ops 1.2e13 -- python train.py --epochs 3
  efficiency run -n 60000 --profile tpu --repeat 3 -- python mnist.py
  efficiency estimate --elapsed 120s -n 12e6 --watts 400
  efficiency detect`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor || !term.IsTerminal(int(os.Stdout.Fd())) {
				color.NoColor = true
			}
		},
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	runCmd := &cobra.Command{
		Use:   "run [flags] -- COMMAND [ARGS...]",
		Short: "Run a training command and measure its efficiency",
		Long: `Runs COMMAND to completion while sampling device power on a ticker, then
derives the efficiency report from wall time, the sample count you pass,
and mean measured power. Stdout/stderr of the command pass through.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), o, args)
		},
	}

	runCmd.Flags().Float64VarP(&o.samples, "samples", "n", 0, "training samples the command processes (required, e.g. 12e6)")
	runCmd.Flags().Float64Var(&o.ops, "ops", 0, "total operations executed, enables ops/s and ops/J (e.g. 1.2e13)")
	runCmd.Flags().IntVar(&o.repeat, "repeat", 1, "run the command N times and aggregate")
	runCmd.Flags().StringVar(&o.label, "label", "", "label recorded with the run (default: command name)")

	addDeviceFlags(runCmd, &o)
	runCmd.Flags().StringVar(&o.source, "source", "auto", "power source: auto|static|nvidia|rapl")

	runCmd.Flags().DurationVarP(&o.interval, "interval", "i", time.Second, "power sampling interval (e.g. 1s, 500ms)")
	runCmd.Flags().Float64Var(&o.ema, "ema", 0.5, "EMA alpha for power smoothing [0..1], 0 = raw")
	runCmd.Flags().IntVar(&o.warmup, "warmup", 1, "initial power samples to exclude from the mean")
	runCmd.Flags().BoolVar(&pretty, "pretty", true, "format ticks as a table instead of CSV-like lines")

	runCmd.Flags().StringVar(&o.csvPath, "csv", "", "write per-tick power rows to CSV file")
	runCmd.Flags().StringVar(&o.jsonPath, "json", "", "write runs and totals to JSON file")
	runCmd.Flags().StringVar(&o.htmlPath, "html", "", "write runs, ticks, and summary to HTML file")
	runCmd.Flags().StringVar(&o.pubURL, "publish", "", "POST each run result to this collector URL")
	runCmd.Flags().StringVar(&o.pubToken, "token", "", "bearer token for --publish")

	root.AddCommand(runCmd)
	root.AddCommand(newEstimateCmd())
	root.AddCommand(newDetectCmd())

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

// addDeviceFlags registers the profile/wattage flags shared by run and
// estimate.
func addDeviceFlags(cmd *cobra.Command, o *opts) {
	cmd.Flags().StringVar(&o.profileKey, "profile", "", "device profile key (gpu|tpu|cpu or a key from --profiles); default: detected class")
	cmd.Flags().StringVar(&o.profiles, "profiles", "", "YAML file with extra device profiles, merged over the builtins")
	cmd.Flags().Float64Var(&o.watts, "watts", 0, "override device power in Watts (beats profile and telemetry mean)")
	cmd.Flags().Float64Var(&o.peak, "peak", 0, "device rated peak ops/s, enables peak utilization")
}

// selectSource picks the power telemetry for a run. auto prefers live
// sources (nvidia-smi, then rapl) and falls back to the static profile.
func selectSource(mode string, prof accel.Profile) (bench.PowerSource, error) {
	switch mode {
	case "static":
		return bench.FromProfile(prof), nil
	case "nvidia":
		if !gpu.Available() {
			return nil, gpu.ErrNoDevice
		}
		return gpu.Source{}, nil
	case "rapl":
		src, _, err := raplSource()
		return src, err
	case "auto", "":
		if gpu.Available() {
			return gpu.Source{}, nil
		}
		if src, _, err := raplSource(); err == nil {
			return src, nil
		}
		return bench.FromProfile(prof), nil
	default:
		return nil, fmt.Errorf("unknown power source %q (auto|static|nvidia|rapl)", mode)
	}
}

// resolveProfile merges the profile file over the builtins and applies the
// explicit flag overrides. An empty key falls back to the detected class.
func resolveProfile(o opts) (accel.Profile, error) {
	profiles := accel.Builtin()
	if o.profiles != "" {
		var err error
		if profiles, err = accel.Load(o.profiles); err != nil {
			return accel.Profile{}, err
		}
	}

	key := o.profileKey
	if key == "" {
		class, _ := accel.Detect()
		key = class.String()
	}

	prof, err := accel.Resolve(key, profiles)
	if err != nil {
		return accel.Profile{}, err
	}
	if o.watts > 0 {
		prof.PowerWatts = o.watts
		prof.Name = "custom"
	}
	if o.peak > 0 {
		prof.PeakOpsPerSec = o.peak
	}
	return prof, prof.Validate()
}

func run(ctx context.Context, o opts, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no command provided (efficiency run [flags] -- COMMAND [ARGS...])")
	}
	if !(o.samples > 0) {
		return fmt.Errorf("--samples must be > 0")
	}
	if o.ops < 0 {
		return fmt.Errorf("--ops must be >= 0")
	}
	if o.repeat < 1 {
		return fmt.Errorf("--repeat must be >= 1")
	}
	if o.interval <= 0 {
		return fmt.Errorf("interval must be > 0")
	}
	if o.ema < 0 || o.ema > 1 {
		return fmt.Errorf("ema must be in [0,1]")
	}

	prof, err := resolveProfile(o)
	if err != nil {
		return err
	}
	src, err := selectSource(o.source, prof)
	if err != nil {
		return fmt.Errorf("power source: %w", err)
	}

	hs := host.Collect()
	fmt.Printf(_console, hs.Hostname, hs.KernelVersion, hs.LogicalCores, hs.MemoryTotal.Humanized(),
		deviceLine(prof), src.Name(), time.Now().Format("2006-01-02 15:04:05"))

	var tw *tabwriter.Writer
	if pretty {
		tw = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		printTableHeader(tw)
	} else {
		fmt.Println("# run, time, p_raw(W), p_smooth(W), e_cum(J)")
	}

	// file outputs
	var (
		csvF *os.File
		csvW *csv.Writer
	)
	if o.csvPath != "" {
		if err := os.MkdirAll(filepath.Dir(o.csvPath), 0o755); err == nil {
			if f, er := os.Create(o.csvPath); er == nil {
				csvF = f
				csvW = csv.NewWriter(f)
				_ = csvW.Write([]string{"run", "time", "power_w", "power_smooth_w", "e_cum_j"})
				csvW.Flush()
			}
		}
	}
	defer func() {
		if csvW != nil {
			csvW.Flush()
		}
		if csvF != nil {
			_ = csvF.Close()
		}
	}()

	// Ctrl-C handling
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		acc         efficiency.Accumulator
		results     []bench.Result
		rows        []row
		interrupted bool
	)

	for seq := 1; seq <= o.repeat; seq++ {
		if o.repeat > 1 {
			labelColor.Printf("\nrun %d/%d\n", seq, o.repeat)
		}

		w := bench.NewCommand(args[0], args[1:]...)
		res, err := bench.Measure(ctx, w, bench.Options{
			Samples:  uint64(o.samples),
			Ops:      types.Ops(o.ops),
			Peak:     prof.PeakOpsPerSec,
			Source:   src,
			Interval: o.interval,
			EMAAlpha: o.ema,
			Warmup:   o.warmup,
			Label:    o.label,
			OnTick: func(tk bench.Tick) {
				if tk.Warmup {
					return
				}
				if pretty {
					printTableRow(tw, tk)
				} else {
					fmt.Printf("%d, %s, %.3f, %.3f, %.3f\n",
						seq, tk.At.Format(time.RFC3339), float64(tk.Raw), float64(tk.Smoothed), float64(tk.Cum))
				}
				r := row{Run: seq, At: tk.At, Raw: float64(tk.Raw), Smoothed: float64(tk.Smoothed), CumJ: float64(tk.Cum)}
				rows = append(rows, r)
				if csvW != nil {
					_ = csvW.Write([]string{
						strconv.Itoa(seq),
						tk.At.Format(time.RFC3339),
						util.FmtFloat(r.Raw), util.FmtFloat(r.Smoothed), util.FmtFloat(r.CumJ),
					})
					csvW.Flush()
				}
			},
		})
		if err != nil {
			// the child shares our terminal and may die of the SIGINT itself
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				slog.Info("interrupted")
				interrupted = true
				break
			}
			return err
		}

		// A --watts override pins the power figure even under live telemetry.
		if o.watts > 0 {
			res.Run.Power = types.Watts(o.watts)
			if res.Report, err = efficiency.Estimate(res.Run); err != nil {
				return err
			}
		}

		results = append(results, res)
		if _, err := acc.Add(res.Run); err != nil {
			return err
		}

		fmt.Println()
		printRunSummary(res)

		if o.pubURL != "" {
			pub := publish.New(o.pubURL, o.pubToken, slog.Default())
			if err := pub.Publish(ctx, res); err != nil {
				badColor.Printf("publish failed: %v\n", err)
			} else {
				goodColor.Printf("published %s\n", res.RunID)
			}
		}
	}

	if len(results) == 0 {
		if interrupted {
			return nil
		}
		return fmt.Errorf("no completed runs")
	}

	totals, err := acc.Totals()
	if err != nil {
		return err
	}

	if o.repeat > 1 {
		fmt.Println()
		headerColor.Printf("totals (over %d runs):\n", acc.Runs())
		printReport(totals, efficiency.TrainingRun{
			ElapsedSec: acc.TotalElapsedSec(),
			Samples:    acc.TotalSamples(),
			Power:      acc.MeanPower(),
		})
	}

	if o.jsonPath != "" {
		if err := writeJSON(o.jsonPath, document{Runs: results, Totals: totals}); err != nil {
			slog.Error("write json", "err", err)
		}
	}
	if o.htmlPath != "" {
		if err := writeHTML(o.htmlPath, results, rows, totals); err != nil {
			slog.Error("write html", "err", err)
		}
	}

	return nil
}

// ---- console rendering ----

func deviceLine(p accel.Profile) string {
	if p.PeakOpsPerSec > 0 {
		return fmt.Sprintf("%s [%s] %s, peak %.3g ops/s", p.Name, p.Class, types.Watts(p.PowerWatts).Humanized(), p.PeakOpsPerSec)
	}
	return fmt.Sprintf("%s [%s] %s", p.Name, p.Class, types.Watts(p.PowerWatts).Humanized())
}

func printTableHeader(tw *tabwriter.Writer) {
	fmt.Fprintln(tw, "TIME\tP_raw (W)\tP_smooth (W)\tE_cum (J)")
	fmt.Fprintln(tw, "----\t---------\t------------\t---------")
	tw.Flush()
}

func printTableRow(tw *tabwriter.Writer, tk bench.Tick) {
	fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.3f\n",
		tk.At.Format("2006-01-02 15:04:05"), float64(tk.Raw), float64(tk.Smoothed), float64(tk.Cum))
	tw.Flush()
}

func printRunSummary(res bench.Result) {
	headerColor.Printf("%s (%s, %d power samples over ~%s):\n",
		res.Label, res.Source, res.Ticks, time.Duration(res.Run.ElapsedSec*float64(time.Second)).Round(time.Millisecond))
	printReport(res.Report, res.Run)
}

func printReport(rep efficiency.Report, run efficiency.TrainingRun) {
	fmt.Printf("- %s %s (%.6f kWh)\n", labelColor.Sprint("energy (total): "), rep.Energy.Total.Humanized(), rep.Energy.TotalKWh)
	fmt.Printf("- %s %s J\n", labelColor.Sprint("energy (sample):"), util.FmtFloat(float64(rep.Energy.PerSample)))
	fmt.Printf("- %s %s samples/s\n", labelColor.Sprint("throughput:     "), util.FmtFloat(rep.Throughput))
	fmt.Printf("- %s %s over %s s\n", labelColor.Sprint("mean power:     "), run.Power.Humanized(), util.FmtFloat(run.ElapsedSec))
	if rep.Compute != nil {
		fmt.Printf("- %s %.3g ops/s, %.3g ops/J\n", labelColor.Sprint("compute:        "), rep.Compute.OpsPerSec, rep.Compute.OpsPerJoule)
		if rep.Compute.PeakUtilization > 0 {
			fmt.Printf("- %s %.1f%% of rated peak\n", labelColor.Sprint("utilization:    "), rep.Compute.PeakUtilization*100)
		}
	}
}

// ---- file exports ----

func writeJSON(path string, doc document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func writeHTML(path string, results []bench.Result, rows []row, totals efficiency.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	data := struct {
		Results []bench.Result
		Rows    []row
		Totals  efficiency.Report
	}{results, rows, totals}

	return tpl.Execute(f, data)
}

var tpl = template.Must(template.New("rep").Parse(`<!doctype html>
<html lang="en"><meta charset="utf-8">
<title>Efficiency Report</title>
<style>
body{font-family:system-ui,Segoe UI,Roboto,Helvetica,Arial,sans-serif;margin:20px}
h1,h2{margin:0 0 8px}
table{border-collapse:collapse;width:100%;font-size:14px}
th,td{border:1px solid #ddd;padding:6px 8px;text-align:right}
th:first-child,td:first-child{text-align:left}
ul{margin:6px 0 14px;padding-left:20px}
code{background:#f5f5f5;padding:2px 4px;border-radius:4px}
.small{color:#555}
.badge{display:inline-block;background:#eef;border:1px solid #ccd;padding:2px 6px;border-radius:6px;margin-right:6px;}
</style>

<h1><a href="https://github.com/ja7ad/efficiency" target="_blank" rel="noopener noreferrer" style="color:inherit;text-decoration:none;">Efficiency Report</a></h1>

<p class="small">
Runs: {{len .Results}} &nbsp;|&nbsp;
Energy: {{printf "%.3f" .Totals.Energy.Total}} J ({{printf "%.6f" .Totals.Energy.TotalKWh}} kWh) &nbsp;|&nbsp;
Throughput: {{printf "%.3f" .Totals.Throughput}} samples/s
</p>

<h2>Summary</h2>
<ul>
<li>Energy (total): {{printf "%.3f" .Totals.Energy.Total}} J</li>
<li>Energy (kWh): {{printf "%.6f" .Totals.Energy.TotalKWh}}</li>
<li>Energy (per sample): {{printf "%.6f" .Totals.Energy.PerSample}} J</li>
<li>Throughput: {{printf "%.3f" .Totals.Throughput}} samples/s</li>
{{with .Totals.Compute}}
<li>Compute: {{printf "%.3g" .OpsPerSec}} ops/s, {{printf "%.3g" .OpsPerJoule}} ops/J</li>
{{if .PeakUtilization}}<li>Peak utilization: {{printf "%.4f" .PeakUtilization}} of rated peak</li>{{end}}
{{end}}
</ul>

<h2>Runs</h2>
<table>
<thead>
<tr>
<th>run</th><th>label</th><th>source</th><th>elapsed (s)</th><th>samples</th>
<th>P (W)</th><th>E (J)</th><th>samples/s</th>
</tr>
</thead>
<tbody>
{{range .Results}}
<tr>
<td style="text-align:left"><span class="badge">{{.RunID}}</span></td>
<td>{{.Label}}</td>
<td>{{.Source}}</td>
<td>{{printf "%.3f" .Run.ElapsedSec}}</td>
<td>{{.Run.Samples}}</td>
<td>{{printf "%.3f" .Run.Power}}</td>
<td>{{printf "%.3f" .Report.Energy.Total}}</td>
<td>{{printf "%.3f" .Report.Throughput}}</td>
</tr>
{{end}}
</tbody>
</table>

{{if .Rows}}
<h2>Power ticks</h2>
<table>
<thead>
<tr><th>run</th><th>time</th><th>P_raw(W)</th><th>P_smooth(W)</th><th>E_cum(J)</th></tr>
</thead>
<tbody>
{{range .Rows}}
<tr>
<td style="text-align:left">{{.Run}}</td>
<td>{{.At.Format "2006-01-02 15:04:05"}}</td>
<td>{{printf "%.3f" .Raw}}</td>
<td>{{printf "%.3f" .Smoothed}}</td>
<td>{{printf "%.3f" .CumJ}}</td>
</tr>
{{end}}
</tbody>
</table>
{{end}}
</html>`))

const _console = `Efficiency - Accelerator Training Efficiency Tool
Copyright (c) 2024 Javad Rajabzadeh Inc. All rights reserved.

* GitHub: https://github.com/ja7ad/efficiency

       Host: %s
       Kernel: %s
       CPUs: %d
       Mem: %s
       Device: %s
       Power source: %s

Efficiency report as of %s:

`
