package promgauge

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const (
	cpuSecondsFamily = "node_cpu_seconds_total"
	memTotalFamily   = "node_memory_MemTotal_bytes"
	memAvailFamily   = "node_memory_MemAvailable_bytes"
	fsAvailFamily    = "node_filesystem_avail_bytes"
	fsSizeFamily     = "node_filesystem_size_bytes"

	// defaultSampleGap separates the two scrapes a CPU rate needs.
	defaultSampleGap = time.Second
)

// skippedFilesystems are pseudo filesystems excluded from the disk ratio.
var skippedFilesystems = map[string]bool{
	"tmpfs":    true,
	"ramfs":    true,
	"overlay":  true,
	"squashfs": true,
}

// NodeExporterSource scrapes a node_exporter endpoint directly. CPU
// utilization is a rate, so one fetch takes two scrapes a short gap apart
// and works from the idle-counter delta.
type NodeExporterSource struct {
	url       *url.URL
	client    http.Client
	sampleGap time.Duration
}

func NewNodeExporterSource(exporterURL *url.URL) *NodeExporterSource {
	return &NodeExporterSource{
		url:       exporterURL,
		client:    http.Client{Timeout: DefaultQueryTimeout},
		sampleGap: defaultSampleGap,
	}
}

// Check verifies the endpoint is reachable and exposes CPU counters.
func (n *NodeExporterSource) Check() error {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultQueryTimeout)
	defer cancel()
	families, err := n.scrape(ctx)
	if err != nil {
		return err
	}
	if _, ok := families[cpuSecondsFamily]; !ok {
		return fmt.Errorf("endpoint exposes no %s family", cpuSecondsFamily)
	}
	return nil
}

func (n *NodeExporterSource) FetchClusterMetrics(ctx context.Context) (ClusterSnapshot, error) {
	first, err := n.scrape(ctx)
	if err != nil {
		return ClusterSnapshot{}, err
	}
	if !sleepWithContext(ctx, n.sampleGap) {
		return ClusterSnapshot{}, ctx.Err()
	}
	second, err := n.scrape(ctx)
	if err != nil {
		return ClusterSnapshot{}, err
	}

	cpu, err := cpuRatioFromSamples(first, second)
	if err != nil {
		return ClusterSnapshot{}, fmt.Errorf("cpu utilization: %w", err)
	}
	mem, err := memoryRatio(second)
	if err != nil {
		return ClusterSnapshot{}, fmt.Errorf("memory utilization: %w", err)
	}
	disk, err := diskRatio(second)
	if err != nil {
		return ClusterSnapshot{}, fmt.Errorf("disk utilization: %w", err)
	}
	return NewSnapshot(cpu, mem, disk)
}

func (n *NodeExporterSource) scrape(ctx context.Context) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.url.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build scrape request: %w", err)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scrape node_exporter: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scrape node_exporter: unexpected status %s", resp.Status)
	}

	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse metrics exposition: %w", err)
	}
	return families, nil
}

// cpuRatioFromSamples derives busy time from the idle-counter delta between
// two scrapes.
func cpuRatioFromSamples(first, second map[string]*dto.MetricFamily) (float64, error) {
	idle1, total1, err := cpuSeconds(first)
	if err != nil {
		return 0, err
	}
	idle2, total2, err := cpuSeconds(second)
	if err != nil {
		return 0, err
	}

	deltaTotal := total2 - total1
	if deltaTotal <= 0 {
		return 0, fmt.Errorf("cpu counters did not advance between scrapes")
	}
	ratio := 1 - (idle2-idle1)/deltaTotal
	// Counter jitter can push the ratio marginally outside [0,1].
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return ratio, nil
}

func cpuSeconds(families map[string]*dto.MetricFamily) (idle, total float64, err error) {
	family, ok := families[cpuSecondsFamily]
	if !ok {
		return 0, 0, fmt.Errorf("missing %s family", cpuSecondsFamily)
	}
	for _, metric := range family.GetMetric() {
		value := metric.GetCounter().GetValue()
		total += value
		for _, label := range metric.GetLabel() {
			if label.GetName() == "mode" && label.GetValue() == "idle" {
				idle += value
			}
		}
	}
	if total == 0 {
		return 0, 0, fmt.Errorf("%s family is empty", cpuSecondsFamily)
	}
	return idle, total, nil
}

func memoryRatio(families map[string]*dto.MetricFamily) (float64, error) {
	totalBytes, err := gaugeValue(families, memTotalFamily)
	if err != nil {
		return 0, err
	}
	availBytes, err := gaugeValue(families, memAvailFamily)
	if err != nil {
		return 0, err
	}
	if totalBytes <= 0 {
		return 0, fmt.Errorf("%s is not positive", memTotalFamily)
	}
	return 1 - availBytes/totalBytes, nil
}

// diskRatio reports the fullest real filesystem: avail and size gauges are
// matched by mountpoint, pseudo filesystems skipped.
func diskRatio(families map[string]*dto.MetricFamily) (float64, error) {
	avail, err := gaugesByMountpoint(families, fsAvailFamily)
	if err != nil {
		return 0, err
	}
	size, err := gaugesByMountpoint(families, fsSizeFamily)
	if err != nil {
		return 0, err
	}

	worst := -1.0
	for mount, sizeBytes := range size {
		availBytes, ok := avail[mount]
		if !ok || sizeBytes <= 0 {
			continue
		}
		used := 1 - availBytes/sizeBytes
		if used > worst {
			worst = used
		}
	}
	if worst < 0 {
		return 0, fmt.Errorf("no usable filesystem samples")
	}
	return worst, nil
}

func gaugeValue(families map[string]*dto.MetricFamily, name string) (float64, error) {
	family, ok := families[name]
	if !ok {
		return 0, fmt.Errorf("missing %s family", name)
	}
	metrics := family.GetMetric()
	if len(metrics) == 0 {
		return 0, fmt.Errorf("%s family is empty", name)
	}
	return metrics[0].GetGauge().GetValue(), nil
}

func gaugesByMountpoint(families map[string]*dto.MetricFamily, name string) (map[string]float64, error) {
	family, ok := families[name]
	if !ok {
		return nil, fmt.Errorf("missing %s family", name)
	}
	values := make(map[string]float64)
	for _, metric := range family.GetMetric() {
		var mount, fstype string
		for _, label := range metric.GetLabel() {
			switch label.GetName() {
			case "mountpoint":
				mount = label.GetValue()
			case "fstype":
				fstype = label.GetValue()
			}
		}
		if mount == "" || skippedFilesystems[strings.ToLower(fstype)] {
			continue
		}
		values[mount] = metric.GetGauge().GetValue()
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s family has no usable samples", name)
	}
	return values, nil
}
