package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewMeasurementGauge 每个离散 measurement 的最新值
// 标签 name：完整 measurement 名（含前缀）
func (m *MetricFactory) NewMeasurementGauge() *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "reporter_measurement",
		Help: "Latest value of each reported measurement",
	}, []string{"name"})
	m.reg.MustRegister(g)
	return g
}

// NewEventAttributeGauge 每个事件属性的最新值
func (m *MetricFactory) NewEventAttributeGauge() *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "reporter_event_attribute",
		Help: "Latest value of each attribute of the last event per type",
	}, []string{"event_type", "attribute"})
	m.reg.MustRegister(g)
	return g
}

// NewEventsTotal 按事件类型计数（包含空事件）
func (m *MetricFactory) NewEventsTotal() *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reporter_events_total",
		Help: "Total events recorded per type",
	}, []string{"event_type"})
	m.reg.MustRegister(c)
	return c
}
