package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/framecast/framecast/internal/metrics"
)

func TestLogRequestPassesThrough(t *testing.T) {
	handler := LogRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
}

func TestHTTPServerInstrumentationCountsRequests(t *testing.T) {
	handler := HTTPServerInstrumentation(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/counted", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	count := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("/counted", http.MethodGet, "204"))
	require.Equal(t, float64(1), count)
}

func TestHTTPServerInstrumentationDefaultStatus(t *testing.T) {
	handler := HTTPServerInstrumentation(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/default", nil))

	count := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("/default", http.MethodGet, "200"))
	require.Equal(t, float64(1), count)
}
