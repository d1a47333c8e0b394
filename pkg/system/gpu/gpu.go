// Package gpu samples NVIDIA board power through nvidia-smi.
//
// The query interface is the stable one nvidia-smi has carried for years:
//
//	nvidia-smi --query-gpu=index,name,power.draw,power.limit,utilization.gpu \
//	    --format=csv,noheader,nounits
//
// Parsing is tolerant per field; boards that report "[N/A]" for a column
// keep the zero value. No NVML binding is required, so the package builds
// (and degrades cleanly) on hosts without the driver.
package gpu

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ja7ad/efficiency/pkg/system/util"
	"github.com/ja7ad/efficiency/pkg/types"
)

const smiBin = "nvidia-smi"

var queryFields = []string{"index", "name", "power.draw", "power.limit", "utilization.gpu"}

// Reading is one power sample for a single device.
type Reading struct {
	Index       int
	Name        string
	PowerDraw   types.Watts // instantaneous board draw
	PowerLimit  types.Watts // enforced board limit
	Utilization float64     // compute utilization, 0..1
}

// Available reports whether nvidia-smi is on PATH.
func Available() bool {
	_, err := exec.LookPath(smiBin)
	return err == nil
}

// Query samples every visible device once.
func Query(ctx context.Context) ([]Reading, error) {
	cmd := exec.CommandContext(ctx, smiBin,
		"--query-gpu="+strings.Join(queryFields, ","),
		"--format=csv,noheader,nounits",
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	return parseReadings(string(out))
}

// parseReadings decodes the csv,noheader,nounits table. One row per device,
// fields comma separated, "[N/A]" (or anything unparsable) left at zero.
func parseReadings(out string) ([]Reading, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil, ErrNoDevice
	}

	lines := strings.Split(out, "\n")
	readings := make([]Reading, 0, len(lines))
	for _, line := range lines {
		parts := strings.Split(line, ",")
		if len(parts) < len(queryFields) {
			continue
		}

		var r Reading
		if idx, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil {
			r.Index = idx
		}
		r.Name = strings.TrimSpace(parts[1])
		if w, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64); err == nil {
			r.PowerDraw = types.Watts(w)
		}
		if w, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64); err == nil {
			r.PowerLimit = types.Watts(w)
		}
		if u, err := strconv.ParseFloat(strings.TrimSpace(parts[4]), 64); err == nil {
			r.Utilization = util.Clamp01(u / 100)
		}
		readings = append(readings, r)
	}

	if len(readings) == 0 {
		return nil, ErrNoDevice
	}
	return readings, nil
}

// Source samples aggregate board draw across all visible devices. It
// satisfies the bench power source contract.
type Source struct{}

func (Source) Name() string { return smiBin }

// Sample returns the summed power.draw of every device at this instant.
func (Source) Sample(ctx context.Context) (types.Watts, error) {
	readings, err := Query(ctx)
	if err != nil {
		return 0, err
	}

	var total types.Watts
	for _, r := range readings {
		total += r.PowerDraw
	}
	if !(total > 0) {
		return 0, ErrNoPower
	}
	return total, nil
}
