package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.RecordTransition("planned", "ok")
		c.RecordPublishFailure()
		c.RecordBookingCreated()
		c.ObserveAggregate(0.1)
		c.RecordOverdue(2)
	})
}

func TestRecordTransition(t *testing.T) {
	c := NewCollector()

	c.RecordTransition("planned", "ok")
	c.RecordTransition("planned", "ok")
	c.RecordTransition("paid", "unauthorized")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.transitions.WithLabelValues("planned", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.transitions.WithLabelValues("paid", "unauthorized")))
}

func TestCollectorsAreIndependent(t *testing.T) {
	a := NewCollector()
	b := NewCollector()

	a.RecordBookingCreated()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.bookingsCreated))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.bookingsCreated))
}

func TestHandlerServesMetrics(t *testing.T) {
	c := NewCollector()
	c.RecordOverdue(3)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "tms_loads_marked_overdue_total 3"))
}
