package promgauge

import (
	"math"
	"time"
)

const (
	// CriticalPercent is the inclusive threshold at which the alarm
	// indicator is lit for the displayed metric.
	CriticalPercent = 95

	// HomeAngle is the pointer's resting position, i.e. 0% utilization.
	HomeAngle = 180

	// PointerTravel is the pointer's full range of motion in degrees.
	PointerTravel = 180

	// DefaultCycleInterval is the time between display updates.
	DefaultCycleInterval = 12 * time.Hour

	// DefaultSettleDelay allows the servo to finish its mechanical travel
	// before drive is removed.
	DefaultSettleDelay = time.Second

	// DefaultQueryTimeout bounds a single backend query.
	DefaultQueryTimeout = 10 * time.Second
)

// AngleForPercent maps a utilization percentage onto the pointer dial.
// The mapping is inverted: 0% points at 180 degrees, 100% at 0. The scaled
// value is rounded up before subtraction, matching PercentFromRatio.
func AngleForPercent(percent int) int {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return HomeAngle - int(math.Ceil(float64(percent)*float64(PointerTravel)/100))
}
