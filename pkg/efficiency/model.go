package efficiency

import "github.com/ja7ad/efficiency/pkg/types"

// TrainingRun describes one completed training measurement: how long the
// framework-owned fit call ran, how many samples it consumed, and the power
// assumption for the device it ran on. The caller builds the record and
// passes it in explicitly; nothing here keeps global timing state.
//
// Units:
//   - ElapsedSec: seconds (wall clock)
//   - Power: watts (static board assumption or measured mean)
//   - Ops: total arithmetic operations over the whole run (0 = unknown)
//   - PeakOpsPerSec: device rated peak (0 = unknown), enables utilization
type TrainingRun struct {
	ElapsedSec    float64     `json:"elapsed_sec"`
	Samples       uint64      `json:"samples"`
	Power         types.Watts `json:"power_w"`
	Ops           types.Ops   `json:"ops,omitempty"`
	PeakOpsPerSec float64     `json:"peak_ops_per_sec,omitempty"`
}

// Energy is the energy portion of a report.
type Energy struct {
	Total     types.Joules `json:"total_j"`
	TotalKWh  float64      `json:"total_kwh"`
	PerSample types.Joules `json:"per_sample_j"`
}

// Compute is the compute-efficiency portion of a report, only meaningful
// when the run recorded an operation count.
type Compute struct {
	OpsPerSec   float64 `json:"ops_per_sec"`
	OpsPerJoule float64 `json:"ops_per_joule"`

	// PeakUtilization is achieved ops/s over the device's rated peak,
	// in [0,1]; zero when the run carried no rated peak.
	PeakUtilization float64 `json:"peak_utilization,omitempty"`
}

// Report is the full derived efficiency report for one TrainingRun (or an
// aggregate of runs). It is a pure function's output: derived once,
// never mutated.
type Report struct {
	Energy     Energy   `json:"energy"`
	Throughput float64  `json:"samples_per_sec"`
	Compute    *Compute `json:"compute,omitempty"`
}
