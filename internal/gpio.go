package promgauge

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// Standard hobby-servo timing: 50Hz frame, 500µs-2500µs pulse across the
// 180 degrees of travel.
const (
	servoFrequency = 50 * physic.Hertz
	servoPeriod    = 20 * time.Millisecond
	servoMinPulse  = 500 * time.Microsecond
	servoMaxPulse  = 2500 * time.Microsecond
)

// GPIODriver drives the indicator LEDs and the pointer servo through
// periph.io. It is the single process-wide owner of the pins it resolves;
// construction claims them and drives everything to its idle state.
type GPIODriver struct {
	indicators map[Role]gpio.PinIO
	servo      gpio.PinIO
	settle     time.Duration
}

func NewGPIODriver(pins PinMap, settle time.Duration) (*GPIODriver, error) {
	if err := pins.Validate(); err != nil {
		return nil, err
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initialize gpio host: %w", err)
	}
	if settle <= 0 {
		settle = DefaultSettleDelay
	}

	d := &GPIODriver{
		indicators: make(map[Role]gpio.PinIO, 4),
		settle:     settle,
	}
	for _, role := range append(IndicatorRoles, RoleAlarm) {
		name := pins.ForRole(role)
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("%s pin %q: %w", role, name, ErrNoSuchPin)
		}
		if err := pin.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("initialize %s pin %q: %w", role, name, err)
		}
		d.indicators[role] = pin
	}

	servo := gpioreg.ByName(pins.Servo)
	if servo == nil {
		return nil, fmt.Errorf("servo pin %q: %w", pins.Servo, ErrNoSuchPin)
	}
	d.servo = servo
	return d, nil
}

func (d *GPIODriver) SetPin(role Role, high bool) error {
	pin, ok := d.indicators[role]
	if !ok {
		return fmt.Errorf("no pin bound for role %s", role)
	}
	if err := pin.Out(gpio.Level(high)); err != nil {
		return fmt.Errorf("drive %s pin: %w", role, err)
	}
	return nil
}

// SetPointerAngle sweeps the servo, holds through the settle delay so the
// horn finishes its travel, then removes drive so the servo neither jitters
// nor draws holding current.
func (d *GPIODriver) SetPointerAngle(degrees int) error {
	if degrees < 0 {
		degrees = 0
	}
	if degrees > PointerTravel {
		degrees = PointerTravel
	}
	if err := d.servo.PWM(servoDuty(degrees), servoFrequency); err != nil {
		return fmt.Errorf("drive servo: %w", err)
	}
	time.Sleep(d.settle)
	return d.StopPointer()
}

func (d *GPIODriver) StopPointer() error {
	if err := d.servo.Halt(); err != nil {
		return fmt.Errorf("halt servo: %w", err)
	}
	return nil
}

// Close releases drive on every output. Display.Teardown is responsible for
// the safe idle state; Close only makes sure nothing stays energized.
func (d *GPIODriver) Close() error {
	var errs []error
	for role := range d.indicators {
		errs = append(errs, d.SetPin(role, false))
	}
	errs = append(errs, d.StopPointer())
	return errors.Join(errs...)
}

func servoDuty(degrees int) gpio.Duty {
	span := servoMaxPulse - servoMinPulse
	pulse := servoMinPulse + span*time.Duration(degrees)/PointerTravel
	return gpio.Duty(int64(gpio.DutyMax) * int64(pulse) / int64(servoPeriod))
}
