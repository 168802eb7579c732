package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "json")

	logger.Info("dropped")
	logger.Warn("kept", "region", "india-delhi")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "climatesphere", entry["service"])
	assert.Equal(t, "india-delhi", entry["region"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "debug", "text")

	logger.Debug("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("whatever"))
}

func TestNewMetricsForTesting(t *testing.T) {
	m := NewMetricsForTesting()

	m.SimulationsTotal.WithLabelValues("temperature").Inc()
	m.SupersededRuns.Add(2)
	m.MLAvailable.Set(1)

	assert.Equal(t, 1.0, metricValue(t, m.SimulationsTotal.WithLabelValues("temperature")))
	assert.Equal(t, 2.0, metricValue(t, m.SupersededRuns))
	assert.Equal(t, 1.0, metricValue(t, m.MLAvailable))
}

func metricValue(t *testing.T, c prometheus.Metric) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	}
	t.Fatalf("unsupported metric type")
	return 0
}

func TestNewMetricsWith(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWith(reg)
	m.SimulationsTotal.WithLabelValues("rainfall").Inc()
	m.SnapshotsPublished.WithLabelValues("dropped").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "climatesphere_simulations_total")
	assert.Contains(t, names, "climatesphere_snapshots_published_total")

	assert.NotPanics(t, func() { NewMetricsWith(prometheus.NewRegistry()) })
}
