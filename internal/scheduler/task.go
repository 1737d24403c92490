package scheduler

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/metrics-reporter/pkg/config"
	"github.com/metrics-reporter/pkg/metrics"
	"github.com/metrics-reporter/pkg/sink"
	"github.com/metrics-reporter/pkg/source"
)

// presence 节点存在标记的固定值
const presence float32 = 1

// reportingTask 单个指标源的周期任务：快照 → 过滤 → 上报
type reportingTask struct {
	src       source.MetricSource
	name      string
	asEvents  bool
	prefix    string
	eventType string
	debug     bool

	backend sink.Backend
	log     *zap.Logger
	metrics *metrics.ReporterMetrics
}

func newReportingTask(src source.MetricSource, cfg config.ReporterConfig, backend sink.Backend,
	log *zap.Logger, m *metrics.ReporterMetrics) *reportingTask {
	return &reportingTask{
		src:       src,
		name:      src.Name(),
		asEvents:  cfg.AsEvents(),
		prefix:    cfg.MetricPrefix,
		eventType: cfg.EventType,
		debug:     cfg.Debug,
		backend:   backend,
		log:       log.With(zap.String("source", src.Name())),
		metrics:   m,
	}
}

// run 不会失败：错误和 panic 只结束本次触发，任务继续保持调度
func (t *reportingTask) run(ctx context.Context) {
	start := time.Now()
	outcome := metrics.OutcomeOK
	defer func() {
		if r := recover(); r != nil {
			outcome = metrics.OutcomeFailed
			t.log.Debug("unable to record metrics", zap.Any("panic", r))
		}
		t.metrics.Firings.WithLabelValues(t.name, outcome).Inc()
		t.metrics.FiringDuration.WithLabelValues(t.name).Observe(time.Since(start).Seconds())
	}()

	if err := t.report(ctx); err != nil {
		outcome = metrics.OutcomeFailed
		t.log.Debug("unable to record metrics", zap.Error(err))
	}
}

func (t *reportingTask) report(ctx context.Context) error {
	readings, err := t.src.SnapshotMetrics(ctx)
	if err != nil {
		return fmt.Errorf("snapshot metrics: %w", err)
	}

	var event map[string]float32
	if t.asEvents {
		event = make(map[string]float32, len(readings))
	}

	for name, sample := range readings {
		value, ok := t.accept(name, sample)
		if !ok {
			continue
		}
		if t.asEvents {
			event[strings.ReplaceAll(name, "/", ".")] = value
		} else {
			t.backend.RecordMeasurement(t.prefix+name, value)
		}
	}

	nodes, err := t.src.SnapshotNodes(ctx)
	if err != nil {
		return fmt.Errorf("snapshot nodes: %w", err)
	}
	for _, display := range nodes {
		if t.asEvents {
			event[display] = presence
		} else {
			t.backend.RecordMeasurement(display, presence)
		}
	}

	if t.asEvents {
		t.backend.RecordEvent(t.eventType, event)
	}
	return nil
}

// accept 数值读数收窄为 float32，返回结果是否为有限值
func (t *reportingTask) accept(name string, sample source.Sample) (float32, bool) {
	raw, ok := sample.Float()
	if !ok {
		t.metrics.DroppedSamples.WithLabelValues(t.name, metrics.DropNonNumeric).Inc()
		return 0, false
	}

	value := narrow(raw)
	if t.debug {
		t.log.Debug("sample", zap.String("metric", name), zap.Float32("value", value))
	}

	switch f := float64(value); {
	case math.IsNaN(f):
		t.metrics.DroppedSamples.WithLabelValues(t.name, metrics.DropNaN).Inc()
		return 0, false
	case math.IsInf(f, 0):
		t.metrics.DroppedSamples.WithLabelValues(t.name, metrics.DropInfinite).Inc()
		return 0, false
	}
	return value, true
}

// narrow 转 float32，超出范围的值饱和为 ±Inf
func narrow(v float64) float32 {
	switch {
	case v > math.MaxFloat32:
		return float32(math.Inf(1))
	case v < -math.MaxFloat32:
		return float32(math.Inf(-1))
	}
	return float32(v)
}
