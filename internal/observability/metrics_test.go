package observability

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics("storefront-test")

	m.RecordRequest("/api/profile", "GET", 200, 15*time.Millisecond)
	m.RecordRequest("/api/profile", "GET", 200, 5*time.Millisecond)
	m.RecordError("/api/profile", "GET", "TOKEN_EXPIRED")
	m.RecordAuthRejection("expired")
	m.RecordAuthRejection("expired")
	m.RecordLogin("success")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/profile", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorsTotal.WithLabelValues("GET", "/api/profile", "TOKEN_EXPIRED")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.authRejections.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loginsTotal.WithLabelValues("success")))
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.RecordAuthRejection("expired")
		m.RecordLogin("failure")
	})
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics("storefront-test")
	m.RecordAuthRejection("missing_token")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `auth_rejections_total{reason="missing_token",service="storefront-test"} 1`)
}
