package promgauge

import (
	"context"
	"log/slog"
	"time"
)

// Controller runs the fetch → select → display cycle until its context is
// cancelled. It is strictly single-threaded: the only suspension points are
// the inter-cycle sleep and the servo settle delay inside the driver.
type Controller struct {
	source     Source
	display    *Display
	interval   time.Duration
	sweepPause time.Duration
	diagnostic bool
	logger     *slog.Logger
}

// ControllerOptions carries the knobs the process config exposes.
type ControllerOptions struct {
	Interval   time.Duration
	SweepPause time.Duration
	Diagnostic bool
}

func NewController(source Source, display *Display, logger *slog.Logger, opts ControllerOptions) *Controller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultCycleInterval
	}
	if opts.SweepPause <= 0 {
		opts.SweepPause = 2 * time.Second
	}
	return &Controller{
		source:     source,
		display:    display,
		interval:   opts.Interval,
		sweepPause: opts.SweepPause,
		diagnostic: opts.Diagnostic,
		logger:     logger,
	}
}

// Run drives the control loop. Teardown is deferred here so the actuators
// return to their safe idle state on every exit path, including cancellation
// mid-cycle.
func (c *Controller) Run(ctx context.Context) error {
	defer func() {
		if err := c.display.Teardown(); err != nil {
			c.logger.Warn("actuator teardown incomplete", "error", err)
		}
	}()

	if c.diagnostic {
		c.runDiagnostic(ctx)
	}

	for {
		c.cycle(ctx)
		if !sleepWithContext(ctx, c.interval) {
			return nil
		}
	}
}

// cycle performs one fetch and renders the outcome. A fetch failure is never
// fatal: it becomes the error display and the next cycle is the retry.
func (c *Controller) cycle(ctx context.Context) {
	snap, err := c.source.FetchClusterMetrics(ctx)
	if err != nil {
		c.logger.Warn("cluster metrics fetch failed", "error", err)
		if derr := c.display.ShowError(); derr != nil {
			c.logger.Error("error display failed", "error", derr)
		}
		return
	}

	worst := snap.Worst()
	c.logger.Info("displaying worst metric",
		"metric", worst.Name,
		"percent", worst.Percent,
		"angle", AngleForPercent(worst.Percent))
	if err := c.display.Show(worst); err != nil {
		c.logger.Error("display failed", "error", err)
	}
}

// runDiagnostic exercises every output once at startup: all indicators lit,
// then one fetch, and on success a pointer sweep through each metric in turn.
func (c *Controller) runDiagnostic(ctx context.Context) {
	c.logger.Info("running startup diagnostic")
	if err := c.display.AllOn(); err != nil {
		c.logger.Error("diagnostic indicator test failed", "error", err)
		return
	}

	snap, err := c.source.FetchClusterMetrics(ctx)
	if err != nil {
		c.logger.Warn("diagnostic fetch failed", "error", err)
		return
	}

	for _, m := range []Metric{snap.CPU, snap.Memory, snap.Disk} {
		if err := c.display.Show(m); err != nil {
			c.logger.Error("diagnostic sweep failed", "metric", m.Name, "error", err)
			return
		}
		if !sleepWithContext(ctx, c.sweepPause) {
			return
		}
	}
}

// sleepWithContext blocks for d or until ctx is cancelled, reporting whether
// the full duration elapsed.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
