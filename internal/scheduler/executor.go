package scheduler

import (
	"container/heap"
	"context"
	"runtime/pprof"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// executor 单个工作协程执行全部周期任务。执行互不重叠，同一时刻到期的任务按调度顺序执行
type executor struct {
	name  string
	clock clockwork.Clock
	log   *zap.Logger

	mu     sync.Mutex
	queue  entryQueue
	seq    uint64
	closed bool

	after <-chan struct{}
	wake  chan struct{}
	quit  chan struct{}
	done  chan struct{}
}

// newExecutor 启动工作协程，并以 name 打上 pprof 标签。
// after 非 nil 时，在 after 关闭之前不执行任何任务，重建的工作池不会与正在退出的旧池重叠
func newExecutor(name string, clock clockwork.Clock, log *zap.Logger, after <-chan struct{}) *executor {
	e := &executor{
		name:  name,
		clock: clock,
		log:   log.With(zap.String("worker", name)),
		after: after,
		wake:  make(chan struct{}, 1),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go pprof.Do(context.Background(), pprof.Labels("worker", name), e.run)
	return e
}

// scheduleAtFixedRate 延迟 delay 后执行，此后每隔 interval 执行一次（从上次计划时间起算）。
// 某次执行超时，下一次紧接着执行
func (e *executor) scheduleAtFixedRate(task func(context.Context), delay, interval time.Duration) (*TaskHandle, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrExecutorShutdown
	}
	e.seq++
	ent := &entry{
		task:     task,
		next:     e.clock.Now().Add(delay),
		interval: interval,
		seq:      e.seq,
	}
	heap.Push(&e.queue, ent)
	e.mu.Unlock()

	e.signal()
	return &TaskHandle{exec: e, ent: ent}, nil
}

// shutdown 不再接收任务并丢弃待执行项。不等待：进行中的执行会完成，随后工作协程退出并关闭 Done
func (e *executor) shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for _, ent := range e.queue {
		ent.index = -1
	}
	e.queue = nil
	close(e.quit)
}

// Done 工作协程返回后关闭
func (e *executor) Done() <-chan struct{} { return e.done }

func (e *executor) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *executor) run(ctx context.Context) {
	defer close(e.done)
	// 即使已 quit 也要等：done 不能早于前一个池关闭，否则第三个池可能与之重叠
	if e.after != nil {
		<-e.after
	}
	e.log.Debug("worker started")
	defer e.log.Debug("worker stopped")

	for {
		ent, wait := e.next()
		switch {
		case ent != nil:
			select {
			case <-e.quit:
				return
			default:
			}
			if ent.cancelled.Load() {
				continue
			}
			ent.task(ctx)
			e.reschedule(ent)

		case wait > 0:
			timer := e.clock.NewTimer(wait)
			select {
			case <-e.quit:
				timer.Stop()
				return
			case <-e.wake:
				timer.Stop()
			case <-timer.Chan():
			}

		default:
			select {
			case <-e.quit:
				return
			case <-e.wake:
			}
		}
	}
}

// next 队首到期时弹出，否则返回需等待的时长；队列为空返回 (nil, 0)
func (e *executor) next() (*entry, time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return nil, 0
	}
	head := e.queue[0]
	if wait := head.next.Sub(e.clock.Now()); wait > 0 {
		return nil, wait
	}
	heap.Pop(&e.queue)
	return head, 0
}

func (e *executor) reschedule(ent *entry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || ent.cancelled.Load() {
		return
	}
	ent.next = ent.next.Add(ent.interval)
	heap.Push(&e.queue, ent)
}

func (e *executor) remove(ent *entry) {
	e.mu.Lock()
	if ent.index >= 0 && ent.index < len(e.queue) && e.queue[ent.index] == ent {
		heap.Remove(&e.queue, ent.index)
	}
	e.mu.Unlock()
	e.signal()
}

// TaskHandle 周期任务的句柄，不持有工作协程
type TaskHandle struct {
	exec *executor
	ent  *entry
}

// Cancel 停止后续执行，不中断进行中的执行。返回是否由本次调用完成取消
func (h *TaskHandle) Cancel() bool {
	if !h.ent.cancelled.CompareAndSwap(false, true) {
		return false
	}
	h.exec.remove(h.ent)
	return true
}

func (h *TaskHandle) Cancelled() bool { return h.ent.cancelled.Load() }

type entry struct {
	task      func(context.Context)
	next      time.Time
	interval  time.Duration
	seq       uint64
	index     int
	cancelled atomic.Bool
}

// entryQueue 按 (next, seq) 排序的小顶堆
type entryQueue []*entry

func (q entryQueue) Len() int { return len(q) }

func (q entryQueue) Less(i, j int) bool {
	if q[i].next.Equal(q[j].next) {
		return q[i].seq < q[j].seq
	}
	return q[i].next.Before(q[j].next)
}

func (q entryQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *entryQueue) Push(x any) {
	ent := x.(*entry)
	ent.index = len(*q)
	*q = append(*q, ent)
}

func (q *entryQueue) Pop() any {
	old := *q
	n := len(old)
	ent := old[n-1]
	old[n-1] = nil
	ent.index = -1
	*q = old[:n-1]
	return ent
}
