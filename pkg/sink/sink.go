// Package sink 读数的上报去向
package sink

import (
	"maps"
	"sort"

	"go.uber.org/zap"
)

// Backend 接收上报任务的 measurement 与事件。调用来自唯一的调度工作协程，实现应尽快返回
type Backend interface {
	RecordMeasurement(name string, value float32)
	RecordEvent(eventType string, attributes map[string]float32)
}

// Fanout 按顺序转发给每个后端
type Fanout []Backend

func (f Fanout) RecordMeasurement(name string, value float32) {
	for _, b := range f {
		b.RecordMeasurement(name, value)
	}
}

func (f Fanout) RecordEvent(eventType string, attributes map[string]float32) {
	for _, b := range f {
		// 每个后端各拿一份拷贝
		b.RecordEvent(eventType, maps.Clone(attributes))
	}
}

// Log 把每次调用写入 zap 日志
type Log struct {
	log *zap.Logger
}

func NewLog(log *zap.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) RecordMeasurement(name string, value float32) {
	l.log.Info("measurement", zap.String("name", name), zap.Float32("value", value))
}

func (l *Log) RecordEvent(eventType string, attributes map[string]float32) {
	keys := make([]string, 0, len(attributes))
	for k := range attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]zap.Field, 0, len(keys)+2)
	fields = append(fields, zap.String("event_type", eventType), zap.Int("attributes", len(keys)))
	for _, k := range keys {
		fields = append(fields, zap.Float32(k, attributes[k]))
	}
	l.log.Info("event", fields...)
}
