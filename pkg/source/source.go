// Package source 指标源接口定义。
//
// 每次触发指标源提供两份快照：命名读数与节点存在标记。
// 读数是带类型标签的 Sample，调用方按已知类型分支，不做动态类型判断
package source

import (
	"context"
	"fmt"
)

// MetricSource 可被定期轮询的指标源
type MetricSource interface {
	// Name 日志与自身指标中的指标源标识
	Name() string
	// SnapshotMetrics 以 / 分隔的指标名为 key 的读数
	SnapshotMetrics(ctx context.Context) (map[string]Sample, error)
	// SnapshotNodes 节点标识 → 显示名
	SnapshotNodes(ctx context.Context) (map[string]string, error)
}

// Kind Sample 的值类型
type Kind uint8

const (
	KindOther Kind = iota
	KindNumeric
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	default:
		return "other"
	}
}

// Sample 单个读数，只有数值读数会被上报
type Sample struct {
	kind  Kind
	value float64
	raw   any
}

// Numeric 浮点读数
func Numeric(v float64) Sample {
	return Sample{kind: KindNumeric, value: v}
}

// Other 不上报的读数（字符串、结构体等）
func Other(v any) Sample {
	return Sample{kind: KindOther, raw: v}
}

func (s Sample) Kind() Kind { return s.kind }

// Float 返回数值及是否为数值读数
func (s Sample) Float() (float64, bool) {
	return s.value, s.kind == KindNumeric
}

// Raw 非数值读数包装的原始值
func (s Sample) Raw() any { return s.raw }

func (s Sample) String() string {
	if s.kind == KindNumeric {
		return fmt.Sprintf("%g", s.value)
	}
	return fmt.Sprintf("%v", s.raw)
}
