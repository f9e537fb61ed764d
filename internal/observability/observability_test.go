package observability

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSONLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger("warn", false, &buf)
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Str("run_id", "abc").Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "abc", entry["run_id"])
	assert.Equal(t, "shown", entry["message"])
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger("loud", false, io.Discard)
	assert.Error(t, err)
}

func TestMetrics_RecordAndExpose(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.RecordSimulation(StatusOK, 0.01, 42.5)
	m.RecordSimulation(StatusError, 0.01, 0)
	m.RecordSessionClosed("WIN")
	m.RecordSessionClosed("WIN")
	m.RecordSweepRun(StatusOK)

	rec := httptest.NewRecorder()
	HandlerFor(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	assert.Contains(t, body, `test_simulation_runs_total{status="ok"} 1`)
	assert.Contains(t, body, `test_simulation_runs_total{status="error"} 1`)
	assert.Contains(t, body, "test_simulation_last_final_equity 42.5")
	assert.Contains(t, body, `test_simulation_sessions_closed_total{outcome="WIN"} 2`)
	assert.Contains(t, body, `test_sweep_runs_total{status="ok"} 1`)
}
