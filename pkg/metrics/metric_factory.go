package metrics

// MetricFactory 创建并注册 reporter 暴露的全部指标
type MetricFactory struct {
	reg Registers
}

// NewMetricFactory 创建绑定 reg 的指标工厂
func NewMetricFactory(reg Registers) *MetricFactory {
	return &MetricFactory{reg: reg}
}
