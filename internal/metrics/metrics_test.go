package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mediz/internal/diagnosis"
)

func TestCounters(t *testing.T) {
	m := New()

	m.TurnHandled(false)
	m.TurnHandled(true)
	m.TurnHandled(false)
	m.ErrorsDetected([]diagnosis.Category{diagnosis.CategoryMissingSymptom, diagnosis.CategoryMissingSymptom, "AUTRE"})
	m.StarsAwarded(4)
	m.StarsAwarded(2)
	m.SessionTerminated(true)
	m.LLMFallback("tutor-reply")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("SYMPTOME_MANQUE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("AUTRE")))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.StarsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TerminationsTotal.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("tutor-reply")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRequest("POST", "/api/turns", 200, 30*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `mediz_http_requests_total{endpoint="/api/turns",method="POST",status="200"} 1`), body)
	assert.Contains(t, body, "mediz_http_request_duration_seconds")
}
