package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobMetrics(t *testing.T) {
	r := New()

	r.JobItems("close_month", "created", 3)
	r.JobItems("close_month", "failed", 1)
	r.JobItems("close_month", "skipped", 0)
	r.JobDuration("close_month", 250*time.Millisecond)

	assert.Equal(t, 3.0, testutil.ToFloat64(r.jobItems.WithLabelValues("close_month", "created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.jobItems.WithLabelValues("close_month", "failed")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.jobItems))
	assert.Equal(t, 1, testutil.CollectAndCount(r.jobDuration))
}

func TestHandler(t *testing.T) {
	r := New()
	r.JobItems("refresh_prices", "updated", 2)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `fintrack_job_items_total{job="refresh_prices",outcome="updated"} 2`)
	assert.Contains(t, string(body), "go_goroutines")
}
