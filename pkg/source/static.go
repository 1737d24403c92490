package source

import (
	"context"
	"maps"
	"sync"
)

// Static 内存指标源，快照内容由调用方设置
type Static struct {
	name string

	mu      sync.RWMutex
	metrics map[string]Sample
	nodes   map[string]string
	err     error
}

func NewStatic(name string) *Static {
	return &Static{
		name:    name,
		metrics: make(map[string]Sample),
		nodes:   make(map[string]string),
	}
}

func (s *Static) Name() string { return s.name }

// Set 新增或替换一个读数
func (s *Static) Set(metric string, sample Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics[metric] = sample
}

// Delete 删除一个读数
func (s *Static) Delete(metric string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.metrics, metric)
}

// SetNode 设置节点存在标记
func (s *Static) SetNode(id, displayName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[id] = displayName
}

// Fail 之后每次快照都返回 err，直到 Fail(nil)
func (s *Static) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Static) SnapshotMetrics(_ context.Context) (map[string]Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	return maps.Clone(s.metrics), nil
}

func (s *Static) SnapshotNodes(_ context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	return maps.Clone(s.nodes), nil
}
