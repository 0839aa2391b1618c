package promgauge

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// SimDriver renders the actuator state as a styled terminal frame instead
// of driving hardware, for development off the board. It honors the same
// settle-then-release contract as the GPIO driver so loop timing matches.
type SimDriver struct {
	w      io.Writer
	pins   map[Role]bool
	angle  int
	driven bool
	settle time.Duration

	frameStyle lipgloss.Style
	litStyle   lipgloss.Style
	darkStyle  lipgloss.Style
	alarmStyle lipgloss.Style
}

func NewSimDriver(w io.Writer, settle time.Duration) *SimDriver {
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	return &SimDriver{
		w:      w,
		pins:   make(map[Role]bool, 4),
		angle:  HomeAngle,
		settle: settle,
		frameStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		litStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		darkStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		alarmStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
}

func (d *SimDriver) SetPin(role Role, high bool) error {
	d.pins[role] = high
	d.render()
	return nil
}

func (d *SimDriver) SetPointerAngle(degrees int) error {
	if degrees < 0 {
		degrees = 0
	}
	if degrees > PointerTravel {
		degrees = PointerTravel
	}
	d.angle = degrees
	d.driven = true
	d.render()
	time.Sleep(d.settle)
	return d.StopPointer()
}

func (d *SimDriver) StopPointer() error {
	d.driven = false
	d.render()
	return nil
}

func (d *SimDriver) Close() error {
	return nil
}

func (d *SimDriver) render() {
	var cells []string
	for _, role := range IndicatorRoles {
		cells = append(cells, d.lamp(role, d.litStyle))
	}
	cells = append(cells, d.lamp(RoleAlarm, d.alarmStyle))

	drive := "idle"
	if d.driven {
		drive = "driven"
	}
	cells = append(cells, fmt.Sprintf("pointer %3d° (%s)", d.angle, drive))

	frame := d.frameStyle.Render(strings.Join(cells, "  "))
	fmt.Fprintln(d.w, frame)
}

func (d *SimDriver) lamp(role Role, lit lipgloss.Style) string {
	label := strings.ToUpper(role.String())
	if d.pins[role] {
		return lit.Render("● " + label)
	}
	return d.darkStyle.Render("○ " + label)
}
