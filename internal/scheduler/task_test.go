package scheduler

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/metrics-reporter/pkg/config"
	"github.com/metrics-reporter/pkg/metrics"
	"github.com/metrics-reporter/pkg/source"
)

func exampleSource() *source.Static {
	src := source.NewStatic("kafka")
	src.Set("request/rate", source.Numeric(2.5))
	src.Set("error/rate", source.Numeric(math.NaN()))
	src.SetNode("n1", "node.n1")
	return src
}

func runOnce(t *testing.T, cfg config.ReporterConfig, src source.MetricSource) (*recordingBackend, *metrics.ReporterMetrics) {
	t.Helper()
	backend := newRecordingBackend()
	m := newTestMetrics()
	newReportingTask(src, cfg, backend, zap.NewNop(), m).run(context.Background())
	return backend, m
}

func TestBatchedEventExample(t *testing.T) {
	backend, m := runOnce(t, eventsConfig(), exampleSource())

	events := backend.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "RuntimeMetrics", events[0].eventType)
	assert.Equal(t, map[string]float32{"request.rate": 2.5, "node.n1": 1}, events[0].attributes)
	assert.Empty(t, backend.Measurements())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DroppedSamples.WithLabelValues("kafka", metrics.DropNaN)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Firings.WithLabelValues("kafka", metrics.OutcomeOK)))
}

func TestDiscreteMeasurementsExample(t *testing.T) {
	backend, _ := runOnce(t, measurementsConfig(), exampleSource())

	assert.Equal(t, map[string]float32{"prefix/request/rate": 2.5, "node.n1": 1}, backend.Measurements())
	assert.Empty(t, backend.Events())
}

func TestEmptyEventStillEmitted(t *testing.T) {
	backend, _ := runOnce(t, eventsConfig(), source.NewStatic("empty"))

	events := backend.Events()
	require.Len(t, events, 1)
	assert.Empty(t, events[0].attributes)
}

func TestOnlyFiniteNumericSamplesAreEmitted(t *testing.T) {
	tests := []struct {
		name   string
		sample source.Sample
		want   float32
		ok     bool
		reason string
	}{
		{"finite", source.Numeric(2.5), 2.5, true, ""},
		{"zero", source.Numeric(0), 0, true, ""},
		{"max float32", source.Numeric(math.MaxFloat32), math.MaxFloat32, true, ""},
		{"narrowed precision", source.Numeric(0.1), float32(0.1), true, ""},
		{"nan", source.Numeric(math.NaN()), 0, false, metrics.DropNaN},
		{"positive infinity", source.Numeric(math.Inf(1)), 0, false, metrics.DropInfinite},
		{"negative infinity", source.Numeric(math.Inf(-1)), 0, false, metrics.DropInfinite},
		{"overflows float32", source.Numeric(1e39), 0, false, metrics.DropInfinite},
		{"negative overflow", source.Numeric(-1e39), 0, false, metrics.DropInfinite},
		{"non numeric", source.Other("leader"), 0, false, metrics.DropNonNumeric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := source.NewStatic("s")
			src.Set("m", tt.sample)
			backend, m := runOnce(t, measurementsConfig(), src)

			got, ok := backend.Measurements()["prefix/m"]
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
				return
			}
			assert.Equal(t, float64(1), testutil.ToFloat64(m.DroppedSamples.WithLabelValues("s", tt.reason)))
		})
	}
}

func TestDebugLogsNarrowedValueRegardlessOfValidity(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := measurementsConfig()
	cfg.Debug = true

	src := source.NewStatic("s")
	src.Set("bad", source.Numeric(math.NaN()))
	newReportingTask(src, cfg, newRecordingBackend(), zap.New(core), newTestMetrics()).run(context.Background())

	entries := logs.FilterMessage("sample").FilterField(zap.String("metric", "bad")).All()
	require.Len(t, entries, 1)
}

func TestDebugDisabledLogsNoSamples(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	newReportingTask(exampleSource(), measurementsConfig(), newRecordingBackend(), zap.New(core), newTestMetrics()).
		run(context.Background())
	assert.Zero(t, logs.FilterMessage("sample").Len())
}

func TestSnapshotErrorIsSwallowed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	src := exampleSource()
	src.Fail(errors.New("broker unavailable"))
	backend := newRecordingBackend()
	m := newTestMetrics()

	assert.NotPanics(t, func() {
		newReportingTask(src, eventsConfig(), backend, zap.New(core), m).run(context.Background())
	})
	assert.Empty(t, backend.Events())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Firings.WithLabelValues("kafka", metrics.OutcomeFailed)))

	entries := logs.FilterMessage("unable to record metrics").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
}

type panickingBackend struct{}

func (panickingBackend) RecordMeasurement(string, float32)      { panic("backend closed") }
func (panickingBackend) RecordEvent(string, map[string]float32) { panic("backend closed") }

func TestBackendPanicIsSwallowed(t *testing.T) {
	m := newTestMetrics()
	task := newReportingTask(exampleSource(), measurementsConfig(), panickingBackend{}, zap.NewNop(), m)

	assert.NotPanics(t, func() { task.run(context.Background()) })
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Firings.WithLabelValues("kafka", metrics.OutcomeFailed)))
}
