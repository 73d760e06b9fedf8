package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCleanPass(t *testing.T) {
	m := New()

	m.ObserveCleanPass("full", 3, 1, 20*time.Millisecond)
	m.ObserveCleanPass("delta", 1, 0, time.Millisecond)
	m.ObserveCleanPass("full", 0, 2, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cleanPasses.WithLabelValues("full")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cleanPasses.WithLabelValues("delta")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.cellsCorrected.WithLabelValues("imputed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.cellsCorrected.WithLabelValues("clamped")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCleanPass("full", 1, 1, time.Second)
		m.ObserveWeighting()
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveWeighting()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "surveyclean_weighting_runs_total 1")
}
