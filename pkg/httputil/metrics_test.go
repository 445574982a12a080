package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// --- Metrics Middleware Tests ---

func TestMetrics_LabelsRoutePatternNotRawPath(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Metrics)
	router.Get("/widgets/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ids := []string{
		"0c9a3e52-4b7d-4e0a-9f13-5a6b7c8d9e0f",
		"1d2b4f63-5c8e-4f1b-8a24-6b7c8d9e0f1a",
		"2e3c5a74-6d9f-4a2c-9b35-7c8d9e0f1a2b",
	}
	for _, id := range ids {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/widgets/"+id, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	// All three requests share one series labeled with the route pattern.
	// A series per ID would grow without bound.
	pattern := promtestutil.ToFloat64(requestCounter.WithLabelValues(http.MethodGet, "/widgets/{id}", "200"))
	assert.Equal(t, float64(3), pattern)

	for _, id := range ids {
		raw := promtestutil.ToFloat64(requestCounter.WithLabelValues(http.MethodGet, "/widgets/"+id, "200"))
		assert.Zero(t, raw)
	}
}

func TestMetrics_FallsBackToPathOutsideRouter(t *testing.T) {
	handler := Metrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plain", nil))

	count := promtestutil.ToFloat64(requestCounter.WithLabelValues(http.MethodGet, "/plain", "204"))
	assert.Equal(t, float64(1), count)
}
