package gpu

import "errors"

var (
	// ErrNoDevice is returned when nvidia-smi is missing or reports no devices.
	ErrNoDevice = errors.New("gpu: no nvidia device")
	// ErrNoPower is returned when the driver exposes no usable power.draw figure.
	ErrNoPower = errors.New("gpu: power draw not reported")
)
