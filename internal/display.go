package promgauge

import (
	"errors"
	"fmt"
)

// Display maps a selected metric onto the actuators. It holds no state of
// its own; every call derives the full output state from its argument, so
// a repeated call with the same metric is observably idempotent.
type Display struct {
	drv Driver
}

func NewDisplay(drv Driver) *Display {
	return &Display{drv: drv}
}

// Show renders one metric: exactly one indicator lit, the alarm reflecting
// the critical threshold, and the pointer swept to the metric's angle.
func (d *Display) Show(m Metric) error {
	// Clear the other indicators before lighting the selected one so the
	// bank never shows two metrics at once, whatever the prior state.
	for _, role := range IndicatorRoles {
		if role == m.Role {
			continue
		}
		if err := d.drv.SetPin(role, false); err != nil {
			return fmt.Errorf("clear %s indicator: %w", role, err)
		}
	}
	if err := d.drv.SetPin(m.Role, true); err != nil {
		return fmt.Errorf("light %s indicator: %w", m.Role, err)
	}
	if err := d.drv.SetPin(RoleAlarm, m.Percent >= CriticalPercent); err != nil {
		return fmt.Errorf("set alarm: %w", err)
	}
	if err := d.drv.SetPointerAngle(AngleForPercent(m.Percent)); err != nil {
		return fmt.Errorf("sweep pointer: %w", err)
	}
	return nil
}

// ShowError is the fetch-failure state: indicators dark, alarm lit, pointer
// left wherever the last successful cycle put it.
func (d *Display) ShowError() error {
	for _, role := range IndicatorRoles {
		if err := d.drv.SetPin(role, false); err != nil {
			return fmt.Errorf("clear %s indicator: %w", role, err)
		}
	}
	if err := d.drv.SetPin(RoleAlarm, true); err != nil {
		return fmt.Errorf("set alarm: %w", err)
	}
	return nil
}

// AllOn lights every indicator including the alarm, used by the startup
// diagnostic to verify the LED bank.
func (d *Display) AllOn() error {
	for _, role := range append(IndicatorRoles, RoleAlarm) {
		if err := d.drv.SetPin(role, true); err != nil {
			return fmt.Errorf("light %s indicator: %w", role, err)
		}
	}
	return nil
}

// Teardown returns the hardware to its safe idle state: pointer home with
// drive removed, every indicator dark. It attempts every step even when an
// earlier one fails.
func (d *Display) Teardown() error {
	errs := []error{d.drv.SetPointerAngle(HomeAngle), d.drv.StopPointer()}
	for _, role := range append(IndicatorRoles, RoleAlarm) {
		errs = append(errs, d.drv.SetPin(role, false))
	}
	return errors.Join(errs...)
}
