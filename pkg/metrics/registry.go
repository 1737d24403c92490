package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Registers 自身指标的注册与采集入口。工厂只负责注册，/metrics 与单测只负责采集，
// 两边都不直接依赖 *prometheus.Registry。
type Registers interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// promRegistry 基于 *prometheus.Registry 的实现
type promRegistry struct {
	*prometheus.Registry
}

// NewPromRegistry 包装 registry；registry 为 nil 时新建一个私有的（调度器未注入指标时使用）
func NewPromRegistry(registry *prometheus.Registry) Registers {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return promRegistry{Registry: registry}
}

// MustRegister 重复注册时 panic，错误里带上冲突的指标描述，便于定位是哪个 sink 或调度器重复创建
func (p promRegistry) MustRegister(collectors ...prometheus.Collector) {
	for _, c := range collectors {
		if err := p.Registry.Register(c); err != nil {
			panic(fmt.Errorf("register reporter metric %s: %w", describe(c), err))
		}
	}
}

// describe 取第一个 Desc 的字符串形式
func describe(c prometheus.Collector) string {
	ch := make(chan *prometheus.Desc, 1)
	go func() {
		c.Describe(ch)
		close(ch)
	}()
	var first string
	for d := range ch {
		if first == "" {
			first = d.String()
		}
	}
	return first
}
