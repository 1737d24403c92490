package registers

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/metrics-reporter/pkg/config"
	"github.com/metrics-reporter/pkg/metrics"
	"github.com/metrics-reporter/pkg/sink"
	"github.com/metrics-reporter/pkg/sink/otelsink"
	"github.com/metrics-reporter/pkg/sink/promsink"
	"github.com/metrics-reporter/pkg/source"
	"github.com/metrics-reporter/pkg/source/gatherer"
	"github.com/metrics-reporter/pkg/source/process"
)

const meterName = "github.com/metrics-reporter"

// Registrar 组装层需要的调度器能力
type Registrar interface {
	Register(src source.MetricSource, interval time.Duration) error
	Unregister(src source.MetricSource) error
}

// SourceModule 可选的指标源
type SourceModule struct {
	Name    string
	NewFunc func(ctx context.Context) (source.MetricSource, error)
}

// SinkModule 可选的上报后端
type SinkModule struct {
	Name    string
	NewFunc func() sink.Backend
}

// InitPromRegistry 初始化进程级注册器（不注册 Go 指标，由 goruntime 指标源上报）及绑定的指标工厂
func InitPromRegistry(enableProcess bool) (*prometheus.Registry, *metrics.MetricFactory) {
	promReg := prometheus.NewRegistry()
	if enableProcess {
		promReg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return promReg, metrics.NewMetricFactory(metrics.NewPromRegistry(promReg))
}

// SourceModules 全部指标源，新增指标源只需在这里加一项
func SourceModules(log *zap.Logger) []SourceModule {
	return []SourceModule{
		{
			Name: config.SourceProcess,
			NewFunc: func(ctx context.Context) (source.MetricSource, error) {
				return process.New(ctx, int32(os.Getpid()), log.Named(config.SourceProcess))
			},
		},
		{
			Name: config.SourceGoRuntime,
			NewFunc: func(context.Context) (source.MetricSource, error) {
				return gatherer.NewGoRuntime(), nil
			},
		},
	}
}

// SinkModules 全部上报后端
func SinkModules(factory *metrics.MetricFactory, log *zap.Logger) []SinkModule {
	return []SinkModule{
		{Name: config.SinkPrometheus, NewFunc: func() sink.Backend { return promsink.New(factory) }},
		{Name: config.SinkLog, NewFunc: func() sink.Backend { return sink.NewLog(log.Named("sink")) }},
		{Name: config.SinkOTel, NewFunc: func() sink.Backend {
			return otelsink.New(otel.GetMeterProvider().Meter(meterName), log.Named("otel"))
		}},
	}
}

// BuildSources 按配置创建启用的指标源
func BuildSources(ctx context.Context, cfg *config.Config, modules []SourceModule) ([]source.MetricSource, error) {
	var built []source.MetricSource
	for _, m := range modules {
		if !slices.Contains(cfg.Reporter.Sources, m.Name) {
			continue
		}
		src, err := m.NewFunc(ctx)
		if err != nil {
			return nil, fmt.Errorf("create source %s: %w", m.Name, err)
		}
		built = append(built, src)
	}
	if len(built) == 0 {
		return nil, fmt.Errorf("no sources enabled; check reporter.sources")
	}
	return built, nil
}

// BuildBackend 按配置组合启用的后端
func BuildBackend(cfg *config.Config, modules []SinkModule) (sink.Backend, error) {
	var backends sink.Fanout
	for _, m := range modules {
		if slices.Contains(cfg.Reporter.Sinks, m.Name) {
			backends = append(backends, m.NewFunc())
		}
	}
	switch len(backends) {
	case 0:
		return nil, fmt.Errorf("no sinks enabled; check reporter.sinks")
	case 1:
		return backends[0], nil
	}
	return backends, nil
}

// RegisterSources 注册全部指标源，失败时回滚已注册的
func RegisterSources(r Registrar, srcs []source.MetricSource, interval time.Duration, log *zap.Logger) error {
	for i, src := range srcs {
		if err := r.Register(src, interval); err != nil {
			UnregisterSources(r, srcs[:i], log)
			return fmt.Errorf("register source %s: %w", src.Name(), err)
		}
	}
	names := make([]string, 0, len(srcs))
	for _, src := range srcs {
		names = append(names, src.Name())
	}
	log.Info("all enabled sources registered", zap.Strings("sources", names), zap.Duration("interval", interval))
	return nil
}

// UnregisterSources 注销指标源，出错只记日志不中断
func UnregisterSources(r Registrar, srcs []source.MetricSource, log *zap.Logger) {
	for _, src := range srcs {
		if err := r.Unregister(src); err != nil {
			log.Warn("unregister source failed", zap.String("source", src.Name()), zap.Error(err))
		}
	}
}
