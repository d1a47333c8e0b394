package bench

import (
	"context"
	"fmt"

	"github.com/ja7ad/efficiency/pkg/accel"
	"github.com/ja7ad/efficiency/pkg/efficiency"
	"github.com/ja7ad/efficiency/pkg/types"
)

// PowerSource yields instantaneous device draw once per sampling tick.
// Implementations: gpu.Source (nvidia-smi), rapl.Meter (powercap), and
// Static below for fixed board assumptions.
type PowerSource interface {
	Name() string
	Sample(ctx context.Context) (types.Watts, error)
}

// Static is a constant-draw source backed by a device profile. It never
// fails as long as the wattage is positive, which makes it the fallback
// when no local telemetry exists (remote or TPU-attached runs).
type Static struct {
	Label string
	Watts types.Watts
}

// FromProfile builds a static source from a resolved device profile.
func FromProfile(p accel.Profile) Static {
	return Static{Label: "static:" + p.Name, Watts: types.Watts(p.PowerWatts)}
}

func (s Static) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return "static"
}

func (s Static) Sample(_ context.Context) (types.Watts, error) {
	if !(s.Watts > 0) {
		return 0, fmt.Errorf("%w: static source %v W", efficiency.ErrInvalidMeasurement, float64(s.Watts))
	}
	return s.Watts, nil
}
