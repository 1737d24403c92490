// Package scheduler 共享、按需启动的指标上报调度器。
//
// 一个 Scheduler 用一个工作协程服务全部已注册指标源。工作协程只在至少有一个指标源时存在：
// 注册数 0→1 时创建，1→0 时关闭。
package scheduler

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/metrics-reporter/pkg/config"
	"github.com/metrics-reporter/pkg/metrics"
	"github.com/metrics-reporter/pkg/sink"
	"github.com/metrics-reporter/pkg/source"
)

var (
	ErrNotRegistered      = errors.New("source not registered")
	ErrAlreadyRegistered  = errors.New("source already registered")
	ErrInvalidInterval    = errors.New("interval must be positive")
	ErrNilSource          = errors.New("source is nil")
	ErrUncomparableSource = errors.New("source type is not comparable")
	ErrInvalidNameFormat  = errors.New("invalid worker name format")
	ErrExecutorShutdown   = errors.New("executor is shut down")
)

// Scheduler 持有共享工作池与上报任务注册表。每个进程构建一个，传给所有注册方
type Scheduler struct {
	cfg     config.ReporterConfig
	backend sink.Backend
	log     *zap.Logger
	metrics *metrics.ReporterMetrics
	clock   clockwork.Clock

	registry *Registry

	mu   sync.Mutex
	pool *executor
	// retiring 最近一次关闭的工作池，其协程可能仍在执行
	retiring *executor
	active   int
}

type Option func(*Scheduler)

func WithLogger(log *zap.Logger) Option {
	return func(s *Scheduler) { s.log = log }
}

func WithMetrics(m *metrics.ReporterMetrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

func WithClock(clock clockwork.Clock) Option {
	return func(s *Scheduler) { s.clock = clock }
}

// New 创建空闲调度器，首次 Register 之前不启动工作协程
func New(cfg config.ReporterConfig, backend sink.Backend, opts ...Option) *Scheduler {
	s := &Scheduler{
		cfg:      cfg,
		backend:  backend,
		log:      zap.NewNop(),
		clock:    clockwork.NewRealClock(),
		registry: NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewReporterMetrics(metrics.NewMetricFactory(metrics.NewPromRegistry(nil)))
	}
	return s
}

// Register 按 interval 调度 src，首次立即执行；第一个指标源注册时创建工作池
func (s *Scheduler) Register(src source.MetricSource, interval time.Duration) error {
	if err := checkSource(src); err != nil {
		return err
	}
	if interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.registry.Contains(src) {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, src.Name())
	}

	if s.active == 0 {
		if err := s.startPool(); err != nil {
			return err
		}
	}

	task := newReportingTask(src, s.cfg, s.backend, s.log, s.metrics)
	handle, err := s.pool.scheduleAtFixedRate(task.run, 0, interval)
	if err != nil {
		if s.active == 0 {
			s.stopPool()
		}
		return fmt.Errorf("schedule %s: %w", src.Name(), err)
	}
	s.registry.Put(src, handle)
	s.active++
	s.metrics.RegisteredSources.Set(float64(s.active))

	s.log.Info("source registered",
		zap.String("source", src.Name()),
		zap.Duration("interval", interval),
		zap.Int("registered", s.active))
	return nil
}

// Unregister 取消 src 的任务（不中断进行中的执行）；最后一个指标源注销时关闭工作池。
// 未注册的指标源返回 ErrNotRegistered
func (s *Scheduler) Unregister(src source.MetricSource) error {
	if err := checkSource(src); err != nil {
		return fmt.Errorf("%w: %v", ErrNotRegistered, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	handle, ok := s.registry.Remove(src)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, src.Name())
	}
	handle.Cancel()
	s.active--
	s.metrics.RegisteredSources.Set(float64(s.active))

	s.log.Info("source unregistered",
		zap.String("source", src.Name()),
		zap.Int("registered", s.active))

	if s.active == 0 {
		s.stopPool()
	}
	return nil
}

// Registered 当前有任务的指标源
func (s *Scheduler) Registered() []source.MetricSource {
	return s.registry.Sources()
}

// Running 工作池是否存在
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool != nil
}

// startPool 新建 WorkerFactory 与工作池，调用方持有 mu
func (s *Scheduler) startPool() error {
	factory, err := NewWorkerFactory(s.cfg.WorkerNameFormat)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	var after <-chan struct{}
	if s.retiring != nil {
		after = s.retiring.Done()
		s.retiring = nil
	}
	s.pool = newExecutor(factory.Next(), s.clock, s.log, after)
	s.metrics.PoolStarts.Inc()
	s.log.Debug("worker pool started", zap.String("worker", s.pool.name))
	return nil
}

// stopPool 关闭工作池但不等待，由下一个工作池等待它退出。调用方持有 mu
func (s *Scheduler) stopPool() {
	s.pool.shutdown()
	s.log.Debug("worker pool shut down", zap.String("worker", s.pool.name))
	s.retiring = s.pool
	s.pool = nil
	s.metrics.PoolShutdowns.Inc()
}

// checkSource 拒绝不能作为注册表 key 的值
func checkSource(src source.MetricSource) error {
	if src == nil {
		return ErrNilSource
	}
	if t := reflect.TypeOf(src); !t.Comparable() {
		return fmt.Errorf("%w: %s", ErrUncomparableSource, t)
	}
	return nil
}
