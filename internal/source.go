package promgauge

import (
	"context"
	"fmt"
	"net/url"
)

// Source produces one complete cluster snapshot per control-loop cycle.
// A failed fetch returns no snapshot; the reason is opaque to the loop
// beyond "try again next cycle".
type Source interface {
	// Check probes backend connectivity at startup.
	Check() error
	// FetchClusterMetrics performs one all-or-nothing fetch.
	FetchClusterMetrics(ctx context.Context) (ClusterSnapshot, error)
}

// ParseSourceURL validates a backend URL from configuration.
func ParseSourceURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse source url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("source url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("source url %q: missing host", raw)
	}
	return u, nil
}
