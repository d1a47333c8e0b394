//go:build linux

// Package rapl derives CPU package power from the Linux powercap sysfs.
//
// Each intel-rapl:<N> directory is one CPU package zone carrying a
// cumulative microjoule counter (energy_uj) that wraps at
// max_energy_range_uj. Power over a tick is the summed counter delta
// divided by wall time. Subzones (intel-rapl:N:M) and the mmio mirror
// (intel-rapl-mmio:N) duplicate package energy and are skipped.
//
// energy_uj is typically readable by root only; Discover fails fast with
// the underlying permission error instead of reporting zero watts later.
package rapl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ja7ad/efficiency/pkg/system/util"
	"github.com/ja7ad/efficiency/pkg/types"
)

// DefaultRoot is where the kernel mounts the powercap hierarchy.
const DefaultRoot = "/sys/class/powercap"

// zone is one CPU package energy counter.
type zone struct {
	dir      string
	name     string // kernel zone name, e.g. "package-0"
	maxRange uint64 // µJ, wrap point of energy_uj (0 when not exposed)
	prev     uint64 // µJ, counter at the previous sample
}

// Meter turns package energy counters into power readings. It satisfies
// the bench power source contract.
type Meter struct {
	zones  []zone
	lastAt time.Time
	now    func() time.Time
}

// Discover enumerates the package zones under root and seeds their
// counters so the first Sample already has a baseline.
func Discover(root string) (*Meter, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var zones []zone
	for _, e := range entries {
		if !packageZone(e.Name()) {
			continue
		}
		dir := filepath.Join(root, e.Name())

		name, err := readLineFile(filepath.Join(dir, "name"))
		if err != nil {
			continue
		}
		seed, err := readUintFile(filepath.Join(dir, "energy_uj"))
		if err != nil {
			return nil, fmt.Errorf("rapl: read %s energy: %w", name, err)
		}
		// Missing range file just disables wrap correction for the zone.
		maxRange, _ := readUintFile(filepath.Join(dir, "max_energy_range_uj"))

		zones = append(zones, zone{dir: dir, name: name, maxRange: maxRange, prev: seed})
	}
	if len(zones) == 0 {
		return nil, ErrUnavailable
	}

	return &Meter{zones: zones, lastAt: time.Now(), now: time.Now}, nil
}

func (m *Meter) Name() string { return "rapl" }

// Zones lists the kernel names of the metered packages.
func (m *Meter) Zones() []string {
	names := make([]string, len(m.zones))
	for i, z := range m.zones {
		names[i] = z.name
	}
	return names
}

// Sample returns mean package power since the previous sample (or since
// Discover for the first call).
func (m *Meter) Sample(_ context.Context) (types.Watts, error) {
	now := m.now()
	dt := now.Sub(m.lastAt).Seconds()
	if !(dt > 0) {
		return 0, ErrBadInterval
	}

	var microjoules float64
	for i := range m.zones {
		z := &m.zones[i]
		cur, err := readUintFile(filepath.Join(z.dir, "energy_uj"))
		if err != nil {
			return 0, fmt.Errorf("rapl: read %s energy: %w", z.name, err)
		}
		microjoules += float64(wrapDelta(cur, z.prev, z.maxRange))
		z.prev = cur
	}
	m.lastAt = now

	return types.Watts(microjoules / 1e6 / dt), nil
}

// ---- powercap helpers ----

// packageZone matches top-level package zones only: "intel-rapl:<digits>".
func packageZone(name string) bool {
	const prefix = "intel-rapl:"
	rest, ok := strings.CutPrefix(name, prefix)
	if !ok || rest == "" {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// wrapDelta advances a wrapping µJ counter. When the counter went
// backwards and the zone published its range, the delta spans the wrap;
// without a range we can only report zero for that tick.
func wrapDelta(now, prev, maxRange uint64) uint64 {
	if now >= prev {
		return now - prev
	}
	if maxRange > 0 && prev <= maxRange {
		return (maxRange - prev) + now
	}
	return util.DeltaU64(now, prev)
}

func readUintFile(path string) (uint64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(b)), 10, 64)
}

func readLineFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
