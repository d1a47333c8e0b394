package gpu

import (
	"context"
	"testing"
	"time"

	"github.com/ja7ad/efficiency/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseReadings_SingleDevice(t *testing.T) {
	out := "0, NVIDIA A100-SXM4-80GB, 287.45, 400.00, 98\n"

	readings, err := parseReadings(out)
	require.NoError(t, err)
	require.Len(t, readings, 1)

	r := readings[0]
	assert.Equal(t, 0, r.Index)
	assert.Equal(t, "NVIDIA A100-SXM4-80GB", r.Name)
	assert.InDelta(t, 287.45, float64(r.PowerDraw), 1e-9)
	assert.InDelta(t, 400.00, float64(r.PowerLimit), 1e-9)
	assert.InDelta(t, 0.98, r.Utilization, 1e-9)
}

func Test_ParseReadings_MultiDevice(t *testing.T) {
	out := "0, NVIDIA H100 80GB HBM3, 612.33, 700.00, 100\n" +
		"1, NVIDIA H100 80GB HBM3, 598.10, 700.00, 97\n"

	readings, err := parseReadings(out)
	require.NoError(t, err)
	require.Len(t, readings, 2)

	var total types.Watts
	for _, r := range readings {
		total += r.PowerDraw
	}
	assert.InDelta(t, 1210.43, float64(total), 1e-9)
}

func Test_ParseReadings_NotSupportedFields(t *testing.T) {
	// Display-class boards report [N/A] for power; those fields stay zero.
	out := "0, Quadro P400, [N/A], [N/A], 12\n"

	readings, err := parseReadings(out)
	require.NoError(t, err)
	require.Len(t, readings, 1)

	assert.Equal(t, types.Watts(0), readings[0].PowerDraw)
	assert.Equal(t, types.Watts(0), readings[0].PowerLimit)
	assert.InDelta(t, 0.12, readings[0].Utilization, 1e-9)
}

func Test_ParseReadings_UtilizationClamped(t *testing.T) {
	out := "0, NVIDIA L4, 71.0, 72.0, 250\n"

	readings, err := parseReadings(out)
	require.NoError(t, err)
	assert.Equal(t, 1.0, readings[0].Utilization)
}

func Test_ParseReadings_Empty(t *testing.T) {
	_, err := parseReadings("")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoDevice)

	_, err = parseReadings("   \n")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoDevice)
}

func Test_ParseReadings_MalformedRowsSkipped(t *testing.T) {
	out := "garbage\n0, NVIDIA T4, 68.5, 70.0, 55\nshort, row\n"

	readings, err := parseReadings(out)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, "NVIDIA T4", readings[0].Name)

	_, err = parseReadings("garbage\nonly, bad, rows\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoDevice)
}

func Test_Query_Local(t *testing.T) {
	if !Available() {
		t.Skip("skip: nvidia-smi not on PATH")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	readings, err := Query(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, readings)

	for _, r := range readings {
		t.Logf("gpu %d %s draw=%s limit=%s util=%.0f%%",
			r.Index, r.Name, r.PowerDraw.Humanized(), r.PowerLimit.Humanized(), r.Utilization*100)
	}
}
