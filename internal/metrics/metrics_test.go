package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsolatedRegistries(t *testing.T) {
	t.Parallel()

	a := New()
	b := New()

	a.EventsLogged.WithLabelValues("queryCreated").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.EventsLogged.WithLabelValues("queryCreated")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.EventsLogged.WithLabelValues("queryCreated")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	t.Parallel()

	m := New()
	m.EventsFiltered.WithLabelValues("queryCompleted", ReasonCatalog).Inc()
	m.DLQSizeBytes.Set(42)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `querylog_events_filtered_total{kind="queryCompleted",reason="catalog"} 1`)
	assert.Contains(t, string(body), "querylog_dlq_size_bytes 42")
}
