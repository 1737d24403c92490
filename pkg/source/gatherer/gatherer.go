// Package gatherer 把 prometheus.Gatherer 适配为指标源
package gatherer

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"

	"github.com/metrics-reporter/pkg/source"
)

// Source 每次触发采集一次 gatherer。counter、gauge、untyped 转为数值读数；
// histogram 与 summary 上报 count 和 sum，另附一个保存分布的非数值读数
type Source struct {
	name     string
	gatherer prometheus.Gatherer
	nodes    map[string]string
}

type Option func(*Source)

// WithNode 添加固定的节点存在标记
func WithNode(id, displayName string) Option {
	return func(s *Source) {
		s.nodes[id] = displayName
	}
}

func New(name string, g prometheus.Gatherer, opts ...Option) *Source {
	s := &Source{name: name, gatherer: g, nodes: make(map[string]string)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewGoRuntime 基于私有注册器（仅含 Go runtime collector）的指标源
func NewGoRuntime(opts ...Option) *Source {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	return New("goruntime", reg, opts...)
}

func (s *Source) Name() string { return s.name }

func (s *Source) SnapshotMetrics(_ context.Context) (map[string]source.Sample, error) {
	families, err := s.gatherer.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather %s: %w", s.name, err)
	}

	out := make(map[string]source.Sample)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := metricName(mf.GetName(), m)
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				out[name] = source.Numeric(m.GetCounter().GetValue())
			case dto.MetricType_GAUGE:
				out[name] = source.Numeric(m.GetGauge().GetValue())
			case dto.MetricType_UNTYPED:
				out[name] = source.Numeric(m.GetUntyped().GetValue())
			case dto.MetricType_HISTOGRAM, dto.MetricType_GAUGE_HISTOGRAM:
				h := m.GetHistogram()
				out[name+"/count"] = source.Numeric(float64(h.GetSampleCount()))
				out[name+"/sum"] = source.Numeric(h.GetSampleSum())
				out[name] = source.Other(h.GetBucket())
			case dto.MetricType_SUMMARY:
				sm := m.GetSummary()
				out[name+"/count"] = source.Numeric(float64(sm.GetSampleCount()))
				out[name+"/sum"] = source.Numeric(sm.GetSampleSum())
				out[name] = source.Other(sm.GetQuantile())
			default:
				out[name] = source.Other(m)
			}
		}
	}
	return out, nil
}

func (s *Source) SnapshotNodes(_ context.Context) (map[string]string, error) {
	nodes := make(map[string]string, len(s.nodes))
	for id, display := range s.nodes {
		nodes[id] = display
	}
	return nodes, nil
}

// metricName 把 go_gc_duration_seconds{quantile="0.5"} 转为 go/gc/duration/seconds/0.5
func metricName(family string, m *dto.Metric) string {
	var b strings.Builder
	b.WriteString(strings.ReplaceAll(family, "_", "/"))
	for _, lp := range m.GetLabel() {
		b.WriteByte('/')
		b.WriteString(lp.GetValue())
	}
	return b.String()
}
