package accel

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is a static device power assumption used when no local power
// telemetry is available. The wattages are operator-chosen constants, not
// measured values.
//
// Units:
//   - PowerWatts: board draw under training load, Watts
//   - PeakOpsPerSec: rated peak of the device (ops/s); 0 when unknown
type Profile struct {
	Name          string  `yaml:"name"`
	Class         Class   `yaml:"class"`
	PowerWatts    float64 `yaml:"power_watts"`
	PeakOpsPerSec float64 `yaml:"peak_ops_per_sec"`
}

// Validate checks the power figure; a profile without positive wattage
// cannot feed an energy estimate.
func (p Profile) Validate() error {
	if !(p.PowerWatts > 0) {
		return fmt.Errorf("%w: %q power %v W, must be > 0", ErrBadProfile, p.Name, p.PowerWatts)
	}
	if p.PeakOpsPerSec < 0 {
		return fmt.Errorf("%w: %q negative rated peak", ErrBadProfile, p.Name)
	}
	return nil
}

// Builtin returns the default profile registry keyed by class token.
// 400 W (gpu) and 250 W (tpu) are the conventional board assumptions for
// the two accelerator families; override any of them with a profile file.
func Builtin() map[string]Profile {
	return map[string]Profile{
		"gpu": {Name: "generic-gpu", Class: GPU, PowerWatts: 400},
		"tpu": {Name: "generic-tpu", Class: TPU, PowerWatts: 250},
		"cpu": {Name: "generic-cpu", Class: CPU, PowerWatts: 65},
	}
}

// profileFile is the on-disk YAML shape:
//
//	profiles:
//	  a100:
//	    class: gpu
//	    power_watts: 400
//	    peak_ops_per_sec: 312e12
type profileFile struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// Load reads a YAML profile file and merges its entries over the builtin
// registry. Entries without a name inherit their key.
func Load(path string) (map[string]Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}

	var file profileFile
	if err := yaml.Unmarshal(b, &file); err != nil {
		return nil, fmt.Errorf("parse profiles %s: %w", path, err)
	}

	merged := Builtin()
	for key, p := range file.Profiles {
		if p.Name == "" {
			p.Name = key
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		merged[key] = p
	}
	return merged, nil
}

// Resolve looks a profile up by key.
func Resolve(key string, profiles map[string]Profile) (Profile, error) {
	p, ok := profiles[key]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, key)
	}
	return p, nil
}
