package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.IncResolution(SourceCache, "hit")
	m.IncResolution(SourceCache, "hit")
	m.IncNotFound("image")
	m.AddCollected("attachment", 3)
	m.AddCollected("attachment", 0)
	m.ObserveFetch(10 * time.Millisecond)
	m.ObserveHTTP("POST", "/api/images", "200", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ResolutionsTotal.WithLabelValues(SourceCache, "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotFoundTotal.WithLabelValues("image")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CollectedTotal.WithLabelValues("attachment")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/images", "200")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncResolution(SourceNetwork, "ok")
		m.IncNotFound("image")
		m.AddCollected("image", 1)
		m.ObserveFetch(time.Second)
		m.ObserveHTTP("GET", "/", "200", time.Second)
	})
}
