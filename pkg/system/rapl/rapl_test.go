//go:build linux

package rapl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeZone lays out one powercap zone directory in a fake sysfs root.
func writeZone(t *testing.T, root, dir, name string, energyUJ, maxRangeUJ uint64) string {
	t.Helper()
	path := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "name"), []byte(name+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(path, "energy_uj"), []byte(strconv.FormatUint(energyUJ, 10)+"\n"), 0o644))
	if maxRangeUJ > 0 {
		require.NoError(t, os.WriteFile(filepath.Join(path, "max_energy_range_uj"), []byte(strconv.FormatUint(maxRangeUJ, 10)+"\n"), 0o644))
	}
	return path
}

func setEnergy(t *testing.T, zoneDir string, energyUJ uint64) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(zoneDir, "energy_uj"), []byte(strconv.FormatUint(energyUJ, 10)+"\n"), 0o644))
}

func Test_PackageZone(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"intel-rapl:0", true},
		{"intel-rapl:1", true},
		{"intel-rapl:12", true},
		{"intel-rapl:0:0", false}, // subzone
		{"intel-rapl-mmio:0", false},
		{"intel-rapl:", false},
		{"intel-rapl", false},
		{"dtpm:0", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, packageZone(c.name), c.name)
	}
}

func Test_WrapDelta(t *testing.T) {
	assert.Equal(t, uint64(500), wrapDelta(1500, 1000, 0))
	assert.Equal(t, uint64(0), wrapDelta(1000, 1000, 0))
	// wrap with a published range spans the rollover
	assert.Equal(t, uint64(2_000), wrapDelta(1_000, 9_999_000, 10_000_000))
	// wrap with no range cannot be reconstructed
	assert.Equal(t, uint64(0), wrapDelta(1_000, 9_999_000, 0))
}

func Test_Discover_FakeSysfs(t *testing.T) {
	root := t.TempDir()
	writeZone(t, root, "intel-rapl:0", "package-0", 1_000_000, 262_143_328_850)
	writeZone(t, root, "intel-rapl:1", "package-1", 2_000_000, 262_143_328_850)
	// duplicates of package energy, must be skipped
	writeZone(t, root, "intel-rapl:0:0", "core", 500_000, 0)
	writeZone(t, root, "intel-rapl-mmio:0", "package-0", 1_000_000, 0)

	m, err := Discover(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"package-0", "package-1"}, m.Zones())
	assert.Equal(t, "rapl", m.Name())
}

func Test_Discover_Empty(t *testing.T) {
	_, err := Discover(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = Discover(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func Test_Meter_Sample(t *testing.T) {
	root := t.TempDir()
	z0 := writeZone(t, root, "intel-rapl:0", "package-0", 1_000_000, 262_143_328_850)
	z1 := writeZone(t, root, "intel-rapl:1", "package-1", 4_000_000, 262_143_328_850)

	m, err := Discover(root)
	require.NoError(t, err)

	t0 := time.Now()
	m.lastAt = t0
	m.now = func() time.Time { return t0.Add(2 * time.Second) }

	// +4 J on package-0, +2 J on package-1 over 2 s → 3 W
	setEnergy(t, z0, 5_000_000)
	setEnergy(t, z1, 6_000_000)

	w, err := m.Sample(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 3.0, float64(w), 1e-9)

	// next tick: 1 s, +1 J total
	m.lastAt = t0
	m.now = func() time.Time { return t0.Add(1 * time.Second) }
	setEnergy(t, z0, 5_500_000)
	setEnergy(t, z1, 6_500_000)

	w, err = m.Sample(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, float64(w), 1e-9)
}

func Test_Meter_Sample_Wrap(t *testing.T) {
	root := t.TempDir()
	z0 := writeZone(t, root, "intel-rapl:0", "package-0", 9_999_000, 10_000_000)

	m, err := Discover(root)
	require.NoError(t, err)

	t0 := time.Now()
	m.lastAt = t0
	m.now = func() time.Time { return t0.Add(1 * time.Second) }

	// counter rolled over: (10_000_000 - 9_999_000) + 1_000 = 2_000 µJ
	setEnergy(t, z0, 1_000)

	w, err := m.Sample(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.002, float64(w), 1e-12)
}

func Test_Meter_Sample_BadInterval(t *testing.T) {
	root := t.TempDir()
	writeZone(t, root, "intel-rapl:0", "package-0", 1_000_000, 0)

	m, err := Discover(root)
	require.NoError(t, err)

	t0 := time.Now()
	m.lastAt = t0
	m.now = func() time.Time { return t0 }

	_, err = m.Sample(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadInterval)
}

func Test_Discover_Local(t *testing.T) {
	if _, err := os.Stat(DefaultRoot); err != nil {
		t.Skip("skip: powercap not present")
	}

	m, err := Discover(DefaultRoot)
	if err != nil {
		// no package zones or unreadable counters (non-root), both fine here
		if errors.Is(err, ErrUnavailable) || errors.Is(err, os.ErrPermission) {
			t.Skipf("skip: %v", err)
		}
		t.Fatalf("discover: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	w, err := m.Sample(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, float64(w), 0.0)

	t.Logf("zones=%v power=%s", m.Zones(), w.Humanized())
}
