package promgauge

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vectorJSON(values ...string) string {
	result := ""
	for i, v := range values {
		if i > 0 {
			result += ","
		}
		result += fmt.Sprintf(`{"metric":{},"value":[1700000000,"%s"]}`, v)
	}
	return fmt.Sprintf(`{"status":"success","data":{"resultType":"vector","result":[%s]}}`, result)
}

// newPromServer serves canned /api/v1/query responses keyed by query text.
func newPromServer(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/query" {
			http.NotFound(w, r)
			return
		}
		require.NoError(t, r.ParseForm())
		body, ok := responses[r.Form.Get("query")]
		if !ok {
			body = vectorJSON()
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
}

func promSourceFor(t *testing.T, server *httptest.Server) *PrometheusSource {
	t.Helper()
	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	src, err := NewPrometheusSource(u, testLogger())
	require.NoError(t, err)
	return src
}

func TestPrometheusSource_FetchClusterMetrics(t *testing.T) {
	server := newPromServer(t, map[string]string{
		cpuRatioQuery:  vectorJSON("0.333"),
		memRatioQuery:  vectorJSON("0.5"),
		diskRatioQuery: vectorJSON("0.905"),
	})
	defer server.Close()

	snap, err := promSourceFor(t, server).FetchClusterMetrics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 34, snap.CPU.Percent)
	assert.Equal(t, 50, snap.Memory.Percent)
	assert.Equal(t, 91, snap.Disk.Percent)
	assert.Equal(t, "disk", snap.Worst().Name)
}

func TestPrometheusSource_EmptyVectorFails(t *testing.T) {
	server := newPromServer(t, map[string]string{
		cpuRatioQuery: vectorJSON(), // no samples
	})
	defer server.Close()

	_, err := promSourceFor(t, server).FetchClusterMetrics(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cpu utilization")
}

func TestPrometheusSource_OutOfRangeRatioFails(t *testing.T) {
	server := newPromServer(t, map[string]string{
		cpuRatioQuery:  vectorJSON("0.2"),
		memRatioQuery:  vectorJSON("0.3"),
		diskRatioQuery: vectorJSON("1.5"),
	})
	defer server.Close()

	_, err := promSourceFor(t, server).FetchClusterMetrics(context.Background())
	assert.Error(t, err)
}

func TestPrometheusSource_MultipleSamplesFail(t *testing.T) {
	server := newPromServer(t, map[string]string{
		cpuRatioQuery: vectorJSON("0.2", "0.4"),
	})
	defer server.Close()

	_, err := promSourceFor(t, server).FetchClusterMetrics(context.Background())
	assert.Error(t, err)
}

func TestPrometheusSource_BackendDownFails(t *testing.T) {
	server := newPromServer(t, nil)
	src := promSourceFor(t, server)
	server.Close()

	_, err := src.FetchClusterMetrics(context.Background())
	assert.Error(t, err)
	assert.Error(t, src.Check())
}

func TestPrometheusSource_Check(t *testing.T) {
	server := newPromServer(t, map[string]string{"up": vectorJSON("1")})
	defer server.Close()
	assert.NoError(t, promSourceFor(t, server).Check())
}
