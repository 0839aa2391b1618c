package promgauge

import (
	"errors"
	"fmt"
)

// Driver is the actuator interface the display layer drives. Implementations
// own the physical (or simulated) outputs; SetPin is idempotent, and
// SetPointerAngle blocks through the settle delay before removing drive so
// the servo never carries holding current between commands.
type Driver interface {
	SetPin(role Role, high bool) error
	SetPointerAngle(degrees int) error
	StopPointer() error
	Close() error
}

// PinMap assigns board pin names to output roles. The assignment is fixed
// for the process lifetime; drivers capture it at construction.
type PinMap struct {
	CPU    string
	Memory string
	Disk   string
	Alarm  string
	Servo  string
}

// ForRole returns the pin name assigned to an indicator role.
func (m PinMap) ForRole(role Role) string {
	switch role {
	case RoleCPU:
		return m.CPU
	case RoleMemory:
		return m.Memory
	case RoleDisk:
		return m.Disk
	case RoleAlarm:
		return m.Alarm
	default:
		return ""
	}
}

// Validate checks that every role has a pin and no pin serves two roles.
func (m PinMap) Validate() error {
	names := map[string]string{
		"cpu":   m.CPU,
		"mem":   m.Memory,
		"disk":  m.Disk,
		"alarm": m.Alarm,
		"servo": m.Servo,
	}
	seen := make(map[string]string, len(names))
	for role, pin := range names {
		if pin == "" {
			return fmt.Errorf("no pin assigned for %s", role)
		}
		if prev, ok := seen[pin]; ok {
			return fmt.Errorf("pin %s assigned to both %s and %s", pin, prev, role)
		}
		seen[pin] = role
	}
	return nil
}

// ErrNoSuchPin is returned by drivers when a configured pin name does not
// resolve on the host.
var ErrNoSuchPin = errors.New("pin not present on host")
