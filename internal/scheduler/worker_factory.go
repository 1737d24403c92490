package scheduler

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// WorkerFactory 为工作池的后台协程命名，编号从 1 开始，在工厂生命周期内唯一
type WorkerFactory struct {
	format string
	count  atomic.Int64
}

// NewWorkerFactory 先渲染一次校验 format，错误模板在这里失败，而不是等到启动第一个工作协程
func NewWorkerFactory(format string) (*WorkerFactory, error) {
	if rendered := fmt.Sprintf(format, 0); strings.Contains(rendered, "%!") {
		return nil, fmt.Errorf("%w: %q renders as %q", ErrInvalidNameFormat, format, rendered)
	}
	return &WorkerFactory{format: format}, nil
}

// Next 下一个工作协程的名称
func (f *WorkerFactory) Next() string {
	return fmt.Sprintf(f.format, f.count.Add(1))
}
