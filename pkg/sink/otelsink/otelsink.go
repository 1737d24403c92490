// Package otelsink 把读数写入 OpenTelemetry meter
package otelsink

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const (
	measurementInstrument = "reporter.measurement"
	eventInstrument       = "reporter.event.attribute"
)

// Sink 把 measurement 与事件属性记录到 float64 gauge。
// 名称作为 attribute 传递，instrument 集合保持固定
type Sink struct {
	meter metric.Meter
	log   *zap.Logger

	once         sync.Once
	initErr      error
	measurements metric.Float64Gauge
	events       metric.Float64Gauge
}

func New(meter metric.Meter, log *zap.Logger) *Sink {
	return &Sink{meter: meter, log: log}
}

func (s *Sink) init() error {
	s.once.Do(func() {
		s.measurements, s.initErr = s.meter.Float64Gauge(measurementInstrument,
			metric.WithDescription("Latest value of each reported measurement"))
		if s.initErr != nil {
			s.initErr = fmt.Errorf("create %s: %w", measurementInstrument, s.initErr)
			return
		}
		s.events, s.initErr = s.meter.Float64Gauge(eventInstrument,
			metric.WithDescription("Attributes of reported events"))
		if s.initErr != nil {
			s.initErr = fmt.Errorf("create %s: %w", eventInstrument, s.initErr)
		}
	})
	return s.initErr
}

func (s *Sink) RecordMeasurement(name string, value float32) {
	if err := s.init(); err != nil {
		s.log.Warn("otel sink unavailable", zap.Error(err))
		return
	}
	s.measurements.Record(context.Background(), float64(value),
		metric.WithAttributes(attribute.String("name", name)))
}

func (s *Sink) RecordEvent(eventType string, attributes map[string]float32) {
	if err := s.init(); err != nil {
		s.log.Warn("otel sink unavailable", zap.Error(err))
		return
	}
	ctx := context.Background()
	for name, value := range attributes {
		s.events.Record(ctx, float64(value), metric.WithAttributes(
			attribute.String("event_type", eventType),
			attribute.String("attribute", name),
		))
	}
}
