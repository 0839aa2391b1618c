package promgauge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentFromRatio_CeilingRounding(t *testing.T) {
	tests := []struct {
		ratio float64
		want  int
	}{
		{0, 0},
		{1, 100},
		{0.5, 50},
		{0.333, 34},
		{0.001, 1},
		{0.949, 95},
		{0.0001, 1},
	}
	for _, tc := range tests {
		got, err := PercentFromRatio(tc.ratio)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "ratio %v", tc.ratio)
	}
}

func TestPercentFromRatio_OutOfRange(t *testing.T) {
	for _, ratio := range []float64{-0.01, 1.01, -1, 2} {
		_, err := PercentFromRatio(ratio)
		assert.Error(t, err, "ratio %v", ratio)
	}
}

func TestWorst_ReturnsMaximum(t *testing.T) {
	snap := mustSnapshot(t, 0.10, 0.90, 0.40)
	worst := snap.Worst()
	assert.Equal(t, "memory", worst.Name)
	assert.Equal(t, 90, worst.Percent)
}

func TestWorst_TieKeepsEarliestOrder(t *testing.T) {
	// cpu=50, mem=90, disk=90: memory is evaluated before disk.
	snap := mustSnapshot(t, 0.50, 0.90, 0.90)
	assert.Equal(t, "memory", snap.Worst().Name)

	// Three-way tie falls to cpu.
	snap = mustSnapshot(t, 0.70, 0.70, 0.70)
	assert.Equal(t, "cpu", snap.Worst().Name)

	// cpu vs disk tie without memory.
	snap = mustSnapshot(t, 0.70, 0.10, 0.70)
	assert.Equal(t, "cpu", snap.Worst().Name)
}

func TestNewSnapshot_AssignsRoles(t *testing.T) {
	snap := mustSnapshot(t, 0.1, 0.2, 0.3)
	assert.Equal(t, RoleCPU, snap.CPU.Role)
	assert.Equal(t, RoleMemory, snap.Memory.Role)
	assert.Equal(t, RoleDisk, snap.Disk.Role)
}

func TestNewSnapshot_AllOrNothing(t *testing.T) {
	_, err := NewSnapshot(0.5, 1.2, 0.5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memory")
}

func TestAngleForPercent(t *testing.T) {
	tests := []struct {
		percent int
		want    int
	}{
		{0, 180},
		{33, 120}, // ceil(59.4) = 60
		{50, 90},
		{95, 9}, // ceil(171.0) = 171
		{100, 0},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, AngleForPercent(tc.percent), "percent %d", tc.percent)
	}
}

func TestAngleForPercent_MonotonicallyNonIncreasing(t *testing.T) {
	prev := AngleForPercent(0)
	for p := 1; p <= 100; p++ {
		angle := AngleForPercent(p)
		assert.LessOrEqual(t, angle, prev, "percent %d", p)
		assert.GreaterOrEqual(t, angle, 0)
		prev = angle
	}
}

func mustSnapshot(t *testing.T, cpu, mem, disk float64) ClusterSnapshot {
	t.Helper()
	snap, err := NewSnapshot(cpu, mem, disk)
	require.NoError(t, err)
	return snap
}
