package scheduler

import (
	"sync"

	"github.com/metrics-reporter/pkg/source"
)

// Registry 已注册指标源 → 任务句柄。写操作在调度器锁内进行，读操作可在任意协程
type Registry struct {
	mu      sync.RWMutex
	entries map[source.MetricSource]*TaskHandle
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[source.MetricSource]*TaskHandle)}
}

// Put 记录 src 的句柄，src 已存在时返回 false
func (r *Registry) Put(src source.MetricSource, handle *TaskHandle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[src]; ok {
		return false
	}
	r.entries[src] = handle
	return true
}

// Remove 删除并返回 src 的句柄
func (r *Registry) Remove(src source.MetricSource) (*TaskHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.entries[src]
	if ok {
		delete(r.entries, src)
	}
	return h, ok
}

func (r *Registry) Get(src source.MetricSource) (*TaskHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.entries[src]
	return h, ok
}

func (r *Registry) Contains(src source.MetricSource) bool {
	_, ok := r.Get(src)
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) IsEmpty() bool { return r.Len() == 0 }

// Sources 已注册指标源的快照
func (r *Registry) Sources() []source.MetricSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]source.MetricSource, 0, len(r.entries))
	for src := range r.entries {
		out = append(out, src)
	}
	return out
}
