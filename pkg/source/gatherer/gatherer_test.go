package gatherer

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metrics-reporter/pkg/source"
)

func TestSnapshotMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "request_total"}, []string{"topic"})
	lag := prometheus.NewGauge(prometheus.GaugeOpts{Name: "consumer_lag"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "request_latency"})
	reg.MustRegister(requests, lag, latency)

	requests.WithLabelValues("orders").Add(3)
	lag.Set(42)
	latency.Observe(0.2)

	s := New("kafka", reg, WithNode("n1", "node.n1"))
	got, err := s.SnapshotMetrics(context.Background())
	require.NoError(t, err)

	v, ok := got["request/total/orders"].Float()
	require.True(t, ok)
	assert.Equal(t, float64(3), v)

	v, ok = got["consumer/lag"].Float()
	require.True(t, ok)
	assert.Equal(t, float64(42), v)

	v, ok = got["request/latency/count"].Float()
	require.True(t, ok)
	assert.Equal(t, float64(1), v)
	assert.Equal(t, source.KindOther, got["request/latency"].Kind())

	nodes, err := s.SnapshotNodes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"n1": "node.n1"}, nodes)
}

type failingGatherer struct{}

func (failingGatherer) Gather() ([]*dto.MetricFamily, error) {
	return nil, errors.New("scrape failed")
}

func TestSnapshotMetricsError(t *testing.T) {
	_, err := New("broken", failingGatherer{}).SnapshotMetrics(context.Background())
	assert.ErrorContains(t, err, "scrape failed")
}

func TestGoRuntime(t *testing.T) {
	s := NewGoRuntime()
	assert.Equal(t, "goruntime", s.Name())
	got, err := s.SnapshotMetrics(context.Background())
	require.NoError(t, err)
	v, ok := got["go/goroutines"].Float()
	require.True(t, ok)
	assert.Greater(t, v, float64(0))
}
