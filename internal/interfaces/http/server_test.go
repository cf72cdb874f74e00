package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukapulse/dukapulse/internal/application"
	"github.com/dukapulse/dukapulse/internal/config"
	"github.com/dukapulse/dukapulse/internal/domain/rules"
	"github.com/dukapulse/dukapulse/internal/domain/snapshot"
	"github.com/dukapulse/dukapulse/internal/infrastructure/providers"
	"github.com/dukapulse/dukapulse/internal/telemetry/metrics"
)

func newTestServer(t *testing.T) (*Server, *application.Engine) {
	t.Helper()

	snap := snapshot.Snapshot{
		Inventory: snapshot.InventoryMetrics{CriticalStock: 3},
		Sales:     snapshot.SalesMetrics{Today: 20000},
	}
	telem := metrics.NewRegistry()
	engine := application.New(providers.Static{Snapshot: snap}, application.Options{
		Thresholds: rules.DefaultThresholds(),
		Metrics:    telem,
	})
	// Tuesday afternoon, outside every system reminder window.
	engine.Evaluate(snap, time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC))

	cfg := config.Default().Server
	return NewServer(cfg, engine, telem), engine
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, "GET", "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["last_tick"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAlertsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, "GET", "/alerts")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeBody(t, rec)
	alerts, ok := body["alerts"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, alerts)

	first, ok := alerts[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "critical-stock", first["id"], "highest priority alert first")
}

func TestAcknowledgeEndpoint(t *testing.T) {
	s, engine := newTestServer(t)

	rec := doRequest(t, s, "POST", "/alerts/critical-stock/acknowledge")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "critical-stock", decodeBody(t, rec)["acknowledged"])

	for _, a := range engine.Latest().Alerts {
		if a.ID == "critical-stock" {
			assert.True(t, a.Acknowledged)
			return
		}
	}
	t.Fatal("acknowledged alert missing from latest result")
}

func TestAcknowledgeUnknownAlert(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, "POST", "/alerts/no-such-alert/acknowledge")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "no-such-alert")
}

func TestDismissEndpoint(t *testing.T) {
	s, engine := newTestServer(t)

	rec := doRequest(t, s, "POST", "/alerts/critical-stock/dismiss")

	assert.Equal(t, http.StatusOK, rec.Code)
	for _, a := range engine.Latest().Alerts {
		assert.NotEqual(t, "critical-stock", a.ID, "dismissed alert removed from results")
	}
}

func TestInsightsTrendsAndForecastEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/insights", "/forecast", "/trends"} {
		rec := doRequest(t, s, "GET", path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.NotEmpty(t, decodeBody(t, rec)["tick"], path)
	}
}

func TestForecastBodyShape(t *testing.T) {
	s, _ := newTestServer(t)

	body := decodeBody(t, doRequest(t, s, "GET", "/forecast"))

	forecast, ok := body["forecast"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, forecast, "sales")
	points, ok := forecast["sales"].([]any)
	require.True(t, ok)
	assert.Len(t, points, 7)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, "GET", "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dukapulse_evaluation_ticks_total")
}

func TestUnknownEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, "GET", "/nope")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMethodMismatch(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, "POST", "/alerts")

	assert.NotEqual(t, http.StatusOK, rec.Code)
}

func TestRateLimitKicksIn(t *testing.T) {
	snap := snapshot.Snapshot{}
	telem := metrics.NewRegistry()
	engine := application.New(providers.Static{Snapshot: snap}, application.Options{
		Thresholds: rules.DefaultThresholds(),
		Metrics:    telem,
	})

	cfg := config.Default().Server
	cfg.RateLimit = 1
	cfg.RateBurst = 2
	s := NewServer(cfg, engine, telem)

	var limited bool
	for i := 0; i < 5; i++ {
		if doRequest(t, s, "GET", "/health").Code == http.StatusTooManyRequests {
			limited = true
		}
	}
	assert.True(t, limited, "burst exhaustion returns 429")
}
