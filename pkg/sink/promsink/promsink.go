// Package promsink 以 prometheus gauge 暴露读数
package promsink

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/metrics-reporter/pkg/metrics"
)

// Sink 基于 prometheus 注册器实现 sink.Backend
type Sink struct {
	measurements *prometheus.GaugeVec
	attributes   *prometheus.GaugeVec
	events       *prometheus.CounterVec

	mu        sync.Mutex
	lastAttrs map[string]map[string]struct{} // 事件类型 -> 上一次事件设置的属性
}

// New 通过指标工厂注册 sink 的 collector
func New(f *metrics.MetricFactory) *Sink {
	return &Sink{
		measurements: f.NewMeasurementGauge(),
		attributes:   f.NewEventAttributeGauge(),
		events:       f.NewEventsTotal(),
		lastAttrs:    make(map[string]map[string]struct{}),
	}
}

func (s *Sink) RecordMeasurement(name string, value float32) {
	s.measurements.WithLabelValues(name).Set(float64(value))
}

// RecordEvent 用新事件替换 eventType 的属性序列，最新事件中缺失的属性不再暴露
func (s *Sink) RecordEvent(eventType string, attributes map[string]float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := make(map[string]struct{}, len(attributes))
	for name, value := range attributes {
		s.attributes.WithLabelValues(eventType, name).Set(float64(value))
		current[name] = struct{}{}
	}
	for name := range s.lastAttrs[eventType] {
		if _, ok := current[name]; !ok {
			s.attributes.DeleteLabelValues(eventType, name)
		}
	}
	s.lastAttrs[eventType] = current
	s.events.WithLabelValues(eventType).Inc()
}
