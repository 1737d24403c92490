package promsink

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/metrics-reporter/pkg/metrics"
)

func newSink() *Sink {
	return New(metrics.NewMetricFactory(metrics.NewPromRegistry(prometheus.NewRegistry())))
}

func TestRecordMeasurement(t *testing.T) {
	s := newSink()
	s.RecordMeasurement("MessageBroker/Runtime/Internal/request/rate", 2.5)

	got := testutil.ToFloat64(s.measurements.WithLabelValues("MessageBroker/Runtime/Internal/request/rate"))
	assert.Equal(t, 2.5, got)
}

func TestRecordEventReplacesAttributes(t *testing.T) {
	s := newSink()
	s.RecordEvent("RuntimeMetrics", map[string]float32{"request.rate": 2.5, "node.n1": 1})
	assert.Equal(t, 2, testutil.CollectAndCount(s.attributes))

	s.RecordEvent("RuntimeMetrics", map[string]float32{"request.rate": 3})
	assert.Equal(t, 1, testutil.CollectAndCount(s.attributes))
	assert.Equal(t, float64(3), testutil.ToFloat64(s.attributes.WithLabelValues("RuntimeMetrics", "request.rate")))

	// 空事件同样计数
	s.RecordEvent("RuntimeMetrics", nil)
	assert.Equal(t, 0, testutil.CollectAndCount(s.attributes))
	assert.Equal(t, float64(3), testutil.ToFloat64(s.events.WithLabelValues("RuntimeMetrics")))
}
