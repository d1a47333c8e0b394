package accel

import (
	"fmt"
	"os"
	"os/exec"

	"gopkg.in/yaml.v3"
)

// Class identifies the accelerator family a training run is assumed to
// execute on.
type Class int

const (
	Unknown Class = iota // nothing detected / not specified
	CPU                  // host processor, no accelerator
	GPU                  // CUDA-class discrete accelerator
	TPU                  // tensor-processing unit
)

func (c Class) String() string {
	switch c {
	case CPU:
		return "cpu"
	case GPU:
		return "gpu"
	case TPU:
		return "tpu"
	default:
		return "unknown"
	}
}

// ParseClass maps a config token to a Class ("cpu", "gpu", "tpu").
func ParseClass(s string) (Class, error) {
	switch s {
	case "cpu":
		return CPU, nil
	case "gpu":
		return GPU, nil
	case "tpu":
		return TPU, nil
	default:
		return Unknown, fmt.Errorf("%w: %q", ErrBadClass, s)
	}
}

// UnmarshalYAML lets profile files spell the class as a plain token.
func (c *Class) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseClass(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// tpuEnvVars are the runtime environment variables a TPU cluster resolver
// sets on the worker; any non-empty one marks the host as TPU-attached.
var tpuEnvVars = []string{"TPU_NAME", "TPU_ACCELERATOR_TYPE"}

// Detect probes the local machine for an attached accelerator and returns
// its class plus a human-readable detail line.
//
// Order matters: a TPU runtime is declared via environment (or a
// /dev/accel* device) and beats a leftover NVIDIA driver; GPU detection
// checks the loaded driver first and falls back to nvidia-smi on PATH.
// With nothing attached the host CPU is assumed.
func Detect() (Class, string) {
	for _, key := range tpuEnvVars {
		if v := os.Getenv(key); v != "" {
			return TPU, fmt.Sprintf("tpu runtime: %s=%s", key, v)
		}
	}
	if _, err := os.Stat("/dev/accel0"); err == nil {
		return TPU, "tpu device: /dev/accel0"
	}

	if _, err := os.Stat("/proc/driver/nvidia/version"); err == nil {
		return GPU, "nvidia driver loaded"
	}
	if path, err := exec.LookPath("nvidia-smi"); err == nil {
		return GPU, "nvidia-smi: " + path
	}

	return CPU, "no accelerator detected; assuming host cpu"
}
