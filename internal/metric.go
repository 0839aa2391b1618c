package promgauge

import (
	"fmt"
	"math"
)

// Role identifies one of the physical outputs on the board.
type Role int

const (
	RoleCPU Role = iota
	RoleMemory
	RoleDisk
	RoleAlarm
)

func (r Role) String() string {
	switch r {
	case RoleCPU:
		return "cpu"
	case RoleMemory:
		return "memory"
	case RoleDisk:
		return "disk"
	case RoleAlarm:
		return "alarm"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// IndicatorRoles lists the non-alarm indicators in display order.
var IndicatorRoles = []Role{RoleCPU, RoleMemory, RoleDisk}

// Metric is one cluster utilization reading, valid for a single cycle.
type Metric struct {
	Name    string
	Percent int
	Role    Role
}

// ClusterSnapshot is one complete reading of all three cluster metrics.
// Snapshots are all-or-nothing: a fetch either yields all three fields
// populated or fails entirely.
type ClusterSnapshot struct {
	CPU    Metric
	Memory Metric
	Disk   Metric
}

// NewSnapshot builds a snapshot from the three raw utilization ratios
// reported by the metrics backend. Each ratio must be in [0, 1].
func NewSnapshot(cpu, mem, disk float64) (ClusterSnapshot, error) {
	cpuPct, err := PercentFromRatio(cpu)
	if err != nil {
		return ClusterSnapshot{}, fmt.Errorf("cpu: %w", err)
	}
	memPct, err := PercentFromRatio(mem)
	if err != nil {
		return ClusterSnapshot{}, fmt.Errorf("memory: %w", err)
	}
	diskPct, err := PercentFromRatio(disk)
	if err != nil {
		return ClusterSnapshot{}, fmt.Errorf("disk: %w", err)
	}
	return ClusterSnapshot{
		CPU:    Metric{Name: "cpu", Percent: cpuPct, Role: RoleCPU},
		Memory: Metric{Name: "memory", Percent: memPct, Role: RoleMemory},
		Disk:   Metric{Name: "disk", Percent: diskPct, Role: RoleDisk},
	}, nil
}

// Worst returns the metric with the highest percent. Metrics are compared
// in the fixed order cpu, memory, disk; on a tie the earlier one wins.
func (s ClusterSnapshot) Worst() Metric {
	worst := s.CPU
	if s.Memory.Percent > worst.Percent {
		worst = s.Memory
	}
	if s.Disk.Percent > worst.Percent {
		worst = s.Disk
	}
	return worst
}

// PercentFromRatio converts a fractional utilization ratio into an integer
// percentage, rounding up so any nonzero utilization registers.
func PercentFromRatio(ratio float64) (int, error) {
	if math.IsNaN(ratio) || ratio < 0 || ratio > 1 {
		return 0, fmt.Errorf("utilization ratio %v out of range [0,1]", ratio)
	}
	return int(math.Ceil(ratio * 100)), nil
}
