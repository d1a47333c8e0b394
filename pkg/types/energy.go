package types

import "fmt"

// joulesPerKWh converts joules to kilowatt-hours (1 kWh = 3.6 MJ).
const joulesPerKWh = 3_600_000

// Joules is a float64 wrapper representing an amount of energy in joules.
type Joules float64

// Humanized returns a human-readable string with automatic unit (J, kJ, MJ, GJ).
func (j Joules) Humanized() string {
	v := float64(j)
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.2f GJ", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2f MJ", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.2f kJ", v/1e3)
	default:
		return fmt.Sprintf("%.2f J", v)
	}
}

// KWh returns the energy in kilowatt-hours.
func (j Joules) KWh() float64 { return float64(j) / joulesPerKWh }

// WattHours returns the energy in watt-hours.
func (j Joules) WattHours() float64 { return float64(j) / 3600 }

// Watts is a float64 wrapper representing power draw in watts.
type Watts float64

// Humanized returns a human-readable string with automatic unit (W, kW, MW).
func (w Watts) Humanized() string {
	v := float64(w)
	switch {
	case v >= 1e6:
		return fmt.Sprintf("%.2f MW", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.2f kW", v/1e3)
	default:
		return fmt.Sprintf("%.2f W", v)
	}
}

// Kilowatts returns the power in kilowatts.
func (w Watts) Kilowatts() float64 { return float64(w) / 1e3 }
