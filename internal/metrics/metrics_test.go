package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianscan/meridian/internal/regime"
)

func TestSetRegimeExactlyOneActive(t *testing.T) {
	r := NewRegistry()
	r.SetRegime(regime.Bull)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.ActiveRegime.WithLabelValues(regime.Bull)))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.ActiveRegime.WithLabelValues(regime.Bear)))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.ActiveRegime.WithLabelValues(regime.Sideways)))

	r.SetRegime(regime.Bear)
	assert.Equal(t, 0.0, testutil.ToFloat64(r.ActiveRegime.WithLabelValues(regime.Bull)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ActiveRegime.WithLabelValues(regime.Bear)))
}

func TestCounters(t *testing.T) {
	r := NewRegistry()
	r.ScansTotal.Inc()
	r.ScansTotal.Inc()
	r.SymbolsSkipped.Inc()
	r.AlertsEmitted.WithLabelValues("HIGH_CONFLUENCE").Inc()
	r.AlertsSuppressed.Add(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.ScansTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.SymbolsSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.AlertsEmitted.WithLabelValues("HIGH_CONFLUENCE")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.AlertsSuppressed))
}

func TestHandlerServesMetricsAndHealth(t *testing.T) {
	r := NewRegistry()
	r.ScansTotal.Inc()
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "meridian_scans_total 1"))

	health, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}
