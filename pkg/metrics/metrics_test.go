package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darzi-app/darzi/pkg/metrics"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	metrics.Handler()(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestRecordExport(t *testing.T) {
	metrics.RecordExport("csv", nil)
	metrics.RecordExport("pdf", errors.New("disk full"))

	body := scrape(t)
	assert.Contains(t, body, `darzi_reports_exports_total{format="csv",status="success"}`)
	assert.Contains(t, body, `darzi_reports_exports_total{format="pdf",status="failed"}`)
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	h := metrics.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew", nil))

	var found bool
	for _, line := range strings.Split(scrape(t), "\n") {
		if strings.HasPrefix(line, "darzi_http_request_duration_seconds_count") &&
			strings.Contains(line, `path="/brew"`) && strings.Contains(line, `status="418"`) {
			found = true
		}
	}
	assert.True(t, found)
}
