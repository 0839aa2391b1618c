package promgauge

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// Utilization-ratio queries. Each must reduce to a single sample in [0,1];
// ceiling conversion to integer percent happens in NewSnapshot.
const (
	cpuRatioQuery = `1 - avg(rate(node_cpu_seconds_total{mode="idle"}[5m]))`
	memRatioQuery = `1 - avg(node_memory_MemAvailable_bytes / node_memory_MemTotal_bytes)`
	// Fullest filesystem wins; pseudo filesystems would otherwise pin this at 100%.
	diskRatioQuery = `1 - min(node_filesystem_avail_bytes{fstype!~"tmpfs|ramfs|overlay"} / node_filesystem_size_bytes{fstype!~"tmpfs|ramfs|overlay"})`
)

// PrometheusSource fetches cluster utilization through the Prometheus
// query API.
type PrometheusSource struct {
	client  api.Client
	timeout time.Duration
	logger  *slog.Logger
}

func NewPrometheusSource(promURL *url.URL, logger *slog.Logger) (*PrometheusSource, error) {
	client, err := api.NewClient(api.Config{
		Address: promURL.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("create prometheus client: %w", err)
	}
	return &PrometheusSource{
		client:  client,
		timeout: DefaultQueryTimeout,
		logger:  logger,
	}, nil
}

// Check verifies basic query API connectivity.
func (p *PrometheusSource) Check() error {
	v1api := v1.NewAPI(p.client)
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	_, warnings, err := v1api.Query(ctx, "up", time.Now())
	if err != nil {
		return fmt.Errorf("prometheus API query failed: %w", err)
	}
	if len(warnings) > 0 {
		p.logger.Warn("prometheus check returned warnings", "warnings", warnings)
	}
	return nil
}

func (p *PrometheusSource) FetchClusterMetrics(ctx context.Context) (ClusterSnapshot, error) {
	cpu, err := p.queryRatio(ctx, cpuRatioQuery)
	if err != nil {
		return ClusterSnapshot{}, fmt.Errorf("cpu utilization: %w", err)
	}
	mem, err := p.queryRatio(ctx, memRatioQuery)
	if err != nil {
		return ClusterSnapshot{}, fmt.Errorf("memory utilization: %w", err)
	}
	disk, err := p.queryRatio(ctx, diskRatioQuery)
	if err != nil {
		return ClusterSnapshot{}, fmt.Errorf("disk utilization: %w", err)
	}
	return NewSnapshot(cpu, mem, disk)
}

// queryRatio runs one instant query and expects exactly one finite sample.
func (p *PrometheusSource) queryRatio(ctx context.Context, query string) (float64, error) {
	v1api := v1.NewAPI(p.client)
	qctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result, warnings, err := v1api.Query(qctx, query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("query prometheus: %w", err)
	}
	if len(warnings) > 0 {
		p.logger.Warn("prometheus query returned warnings", "query", query, "warnings", warnings)
	}

	vector, ok := result.(model.Vector)
	if !ok {
		return 0, fmt.Errorf("unexpected result type %s", result.Type())
	}
	if vector.Len() != 1 {
		return 0, fmt.Errorf("expected a single sample, got %d", vector.Len())
	}

	ratio := float64(vector[0].Value)
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0, fmt.Errorf("sample is not finite: %v", vector[0].Value)
	}
	return ratio, nil
}
