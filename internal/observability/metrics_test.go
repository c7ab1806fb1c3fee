package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics("")
	b := NewMetrics("")

	a.ObserveCache(true)
	a.ObserveCache(false)
	a.ObserveCache(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(a.CacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.CacheMisses))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CacheHits))
}

func TestMetrics_FetchErrors(t *testing.T) {
	m := NewMetrics("test")
	m.ObserveFetch("yahoo", 10*time.Millisecond, nil)
	m.ObserveFetch("yahoo", 10*time.Millisecond, errors.New("boom"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchErrors.WithLabelValues("yahoo")))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("/", 200, time.Second)
		m.ObserveStudy("fetched", 3)
		m.ObserveValidationFailure("UpperWindow")
		m.ObserveFetch("static", time.Second, nil)
		m.ObserveCache(true)
		m.SetCacheEntries(1)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics("event_study")
	m.ObserveStudy("fetched", 7)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `event_study_study_computed_total{origin="fetched"} 1`)
}
