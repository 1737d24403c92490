package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/metrics-reporter/pkg/config"
	"github.com/metrics-reporter/pkg/metrics"
	"github.com/metrics-reporter/pkg/source"
)

const waitTimeout = 2 * time.Second

type event struct {
	eventType  string
	attributes map[string]float32
}

// recordingBackend 记录收到的全部数据，每次调用向 notify 发信号
type recordingBackend struct {
	mu           sync.Mutex
	measurements []map[string]float32
	current      map[string]float32
	events       []event
	notify       chan struct{}
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{notify: make(chan struct{}, 1024)}
}

func (b *recordingBackend) RecordMeasurement(name string, value float32) {
	b.mu.Lock()
	if b.current == nil {
		b.current = map[string]float32{}
	}
	b.current[name] = value
	b.mu.Unlock()
	b.ping()
}

func (b *recordingBackend) RecordEvent(eventType string, attributes map[string]float32) {
	b.mu.Lock()
	b.events = append(b.events, event{eventType: eventType, attributes: attributes})
	b.mu.Unlock()
	b.ping()
}

func (b *recordingBackend) ping() {
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

func (b *recordingBackend) Measurements() map[string]float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]float32, len(b.current))
	for k, v := range b.current {
		out[k] = v
	}
	return out
}

func (b *recordingBackend) Events() []event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]event(nil), b.events...)
}

// countingSource 每次 SnapshotMetrics 返回后向 calls 发信号
type countingSource struct {
	*source.Static
	calls chan struct{}
}

func newCountingSource(name string) *countingSource {
	return &countingSource{Static: source.NewStatic(name), calls: make(chan struct{}, 1024)}
}

func (c *countingSource) SnapshotMetrics(ctx context.Context) (map[string]source.Sample, error) {
	defer func() { c.calls <- struct{}{} }()
	return c.Static.SnapshotMetrics(ctx)
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func newTestMetrics() *metrics.ReporterMetrics {
	return metrics.NewReporterMetrics(metrics.NewMetricFactory(metrics.NewPromRegistry(prometheus.NewRegistry())))
}

func measurementsConfig() config.ReporterConfig {
	cfg := config.NewDefaultConfig().Reporter
	cfg.Mode = config.ModeMeasurements
	cfg.MetricPrefix = "prefix/"
	return cfg
}

func eventsConfig() config.ReporterConfig {
	cfg := config.NewDefaultConfig().Reporter
	cfg.Mode = config.ModeEvents
	cfg.EventType = "RuntimeMetrics"
	return cfg
}
