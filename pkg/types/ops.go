package types

import "fmt"

// Ops is a uint64 wrapper representing a count of arithmetic operations.
type Ops uint64

// Humanized returns a human-readable string with automatic decimal unit
// (op, Kop, Mop, Gop, Top, Pop).
func (o Ops) Humanized() string {
	v := float64(o)
	switch {
	case o >= 1e15:
		return fmt.Sprintf("%.2f Pop", v/1e15)
	case o >= 1e12:
		return fmt.Sprintf("%.2f Top", v/1e12)
	case o >= 1e9:
		return fmt.Sprintf("%.2f Gop", v/1e9)
	case o >= 1e6:
		return fmt.Sprintf("%.2f Mop", v/1e6)
	case o >= 1e3:
		return fmt.Sprintf("%.2f Kop", v/1e3)
	default:
		return fmt.Sprintf("%d op", uint64(o))
	}
}

// Giga returns the count in units of 1e9 operations.
func (o Ops) Giga() float64 { return float64(o) / 1e9 }

// Tera returns the count in units of 1e12 operations.
func (o Ops) Tera() float64 { return float64(o) / 1e12 }
