package otelsink

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

type point struct {
	instrument string
	value      float64
	attrs      attribute.Set
}

type fakeMeter struct {
	noop.Meter
	mu     sync.Mutex
	points []point
	err    error
}

func (m *fakeMeter) Float64Gauge(name string, _ ...metric.Float64GaugeOption) (metric.Float64Gauge, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &fakeGauge{meter: m, name: name}, nil
}

type fakeGauge struct {
	noop.Float64Gauge
	meter *fakeMeter
	name  string
}

func (g *fakeGauge) Record(_ context.Context, v float64, opts ...metric.RecordOption) {
	cfg := metric.NewRecordConfig(opts)
	g.meter.mu.Lock()
	defer g.meter.mu.Unlock()
	g.meter.points = append(g.meter.points, point{instrument: g.name, value: v, attrs: cfg.Attributes()})
}

func TestRecordMeasurementAndEvent(t *testing.T) {
	m := &fakeMeter{}
	s := New(m, zap.NewNop())

	s.RecordMeasurement("prefix/request/rate", 2.5)
	s.RecordEvent("RuntimeMetrics", map[string]float32{"node.n1": 1})

	require.Len(t, m.points, 2)
	assert.Equal(t, measurementInstrument, m.points[0].instrument)
	assert.Equal(t, 2.5, m.points[0].value)
	name, ok := m.points[0].attrs.Value("name")
	require.True(t, ok)
	assert.Equal(t, "prefix/request/rate", name.AsString())

	assert.Equal(t, eventInstrument, m.points[1].instrument)
	et, _ := m.points[1].attrs.Value("event_type")
	assert.Equal(t, "RuntimeMetrics", et.AsString())
}

func TestInstrumentErrorIsLoggedNotPanicked(t *testing.T) {
	m := &fakeMeter{err: errors.New("meter closed")}
	s := New(m, zap.NewNop())

	assert.NotPanics(t, func() {
		s.RecordMeasurement("x", 1)
		s.RecordEvent("t", map[string]float32{"a": 1})
	})
	assert.Empty(t, m.points)
}

func TestNoopMeter(t *testing.T) {
	s := New(noop.NewMeterProvider().Meter("test"), zap.NewNop())
	assert.NotPanics(t, func() { s.RecordMeasurement("x", 1) })
}
