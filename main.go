package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	promgauge "promgauge/internal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "promgauge [prometheus-url]",
	Short: "Physical cluster-health gauge for Prometheus/node_exporter metrics",
	Long: `promgauge periodically fetches cluster CPU, memory, and disk utilization
from Prometheus or node_exporter and renders the single worst metric on
GPIO-attached hardware: one indicator LED per metric, a critical-alarm LED,
and a servo pointer whose angle encodes the percentage.

Examples:
  promgauge http://prometheus.lan:9090
  promgauge --node-exporter-url http://localhost:9100/metrics --interval 1h
  promgauge --sim --diag http://prometheus.lan:9090
  PROMGAUGE_PROMETHEUS_URL=http://prometheus.lan:9090 promgauge`,
	Args: cobra.MaximumNArgs(1),
	Run:  run,
}

func init() {
	rootCmd.Flags().String("prometheus-url", "", "Prometheus server URL")
	rootCmd.Flags().String("node-exporter-url", "", "node_exporter metrics endpoint URL")
	rootCmd.Flags().Duration("interval", promgauge.DefaultCycleInterval, "time between display updates")
	rootCmd.Flags().Duration("settle", promgauge.DefaultSettleDelay, "servo settle delay before drive is removed")
	rootCmd.Flags().Duration("sweep-pause", 2*time.Second, "pause between diagnostic pointer sweeps")
	rootCmd.Flags().Bool("diag", false, "exercise every indicator and the pointer at startup")
	rootCmd.Flags().Bool("sim", false, "render actuators in the terminal instead of driving GPIO")
	rootCmd.Flags().String("pin-cpu", "GPIO17", "cpu indicator pin")
	rootCmd.Flags().String("pin-mem", "GPIO27", "memory indicator pin")
	rootCmd.Flags().String("pin-disk", "GPIO22", "disk indicator pin")
	rootCmd.Flags().String("pin-alarm", "GPIO23", "critical alarm pin")
	rootCmd.Flags().String("pin-servo", "GPIO18", "servo PWM pin")
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")

	// Dashes in flags become underscores in viper keys.
	for flagName, key := range map[string]string{
		"prometheus-url":    "prometheus_url",
		"node-exporter-url": "node_exporter_url",
		"interval":          "interval",
		"settle":            "settle",
		"sweep-pause":       "sweep_pause",
		"diag":              "diag",
		"sim":               "sim",
		"pin-cpu":           "pin_cpu",
		"pin-mem":           "pin_mem",
		"pin-disk":          "pin_disk",
		"pin-alarm":         "pin_alarm",
		"pin-servo":         "pin_servo",
	} {
		if err := viper.BindPFlag(key, rootCmd.Flags().Lookup(flagName)); err != nil {
			log.Fatalf("failed to bind %s: %v", flagName, err)
		}
	}

	viper.SetEnvPrefix("promgauge")
	viper.AutomaticEnv()
}

func run(cmd *cobra.Command, args []string) {
	versionFlag, _ := cmd.Flags().GetBool("version")
	if versionFlag {
		fmt.Printf("promgauge version %s\n", version)
		return
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	logger.Info("starting promgauge", "version", version)

	// Positional argument is a Prometheus URL shorthand.
	if len(args) == 1 && viper.GetString("prometheus_url") == "" {
		viper.Set("prometheus_url", args[0])
	}

	source, err := buildSource(logger)
	if err != nil {
		logger.Error("source configuration invalid", "error", err)
		os.Exit(1)
	}
	// A dead backend at boot is not fatal: the loop's error display covers
	// it and the next cycle retries.
	if err := source.Check(); err != nil {
		logger.Warn("metrics source check failed", "error", err)
	}

	driver, err := buildDriver(logger)
	if err != nil {
		logger.Error("actuator driver setup failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := driver.Close(); err != nil {
			logger.Warn("driver close failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	controller := promgauge.NewController(source, promgauge.NewDisplay(driver), logger, promgauge.ControllerOptions{
		Interval:   viper.GetDuration("interval"),
		SweepPause: viper.GetDuration("sweep_pause"),
		Diagnostic: viper.GetBool("diag"),
	})
	if err := controller.Run(ctx); err != nil {
		logger.Error("control loop failed", "error", err)
		os.Exit(1)
	}
	logger.Info("promgauge stopped")
}

func buildSource(logger *slog.Logger) (promgauge.Source, error) {
	if raw := viper.GetString("prometheus_url"); raw != "" {
		u, err := promgauge.ParseSourceURL(raw)
		if err != nil {
			return nil, err
		}
		logger.Info("using Prometheus backend", "url", u.String())
		return promgauge.NewPrometheusSource(u, logger)
	}
	if raw := viper.GetString("node_exporter_url"); raw != "" {
		u, err := promgauge.ParseSourceURL(raw)
		if err != nil {
			return nil, err
		}
		logger.Info("using node_exporter backend", "url", u.String())
		return promgauge.NewNodeExporterSource(u), nil
	}
	return nil, fmt.Errorf("prometheus_url or node_exporter_url must be set")
}

func buildDriver(logger *slog.Logger) (promgauge.Driver, error) {
	settle := viper.GetDuration("settle")
	if viper.GetBool("sim") {
		logger.Info("using terminal simulation driver")
		return promgauge.NewSimDriver(os.Stdout, settle), nil
	}

	pins := promgauge.PinMap{
		CPU:    viper.GetString("pin_cpu"),
		Memory: viper.GetString("pin_mem"),
		Disk:   viper.GetString("pin_disk"),
		Alarm:  viper.GetString("pin_alarm"),
		Servo:  viper.GetString("pin_servo"),
	}
	logger.Info("using GPIO driver",
		"cpu", pins.CPU, "mem", pins.Memory, "disk", pins.Disk,
		"alarm", pins.Alarm, "servo", pins.Servo)
	return promgauge.NewGPIODriver(pins, settle)
}
