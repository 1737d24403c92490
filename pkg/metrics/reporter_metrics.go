package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 触发结果与丢弃原因（标签值）
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"

	DropNaN        = "nan"
	DropInfinite   = "infinite"
	DropNonNumeric = "non_numeric"
)

// ReporterMetrics 调度器自身的健康指标
type ReporterMetrics struct {
	Firings           *prometheus.CounterVec
	FiringDuration    *prometheus.HistogramVec
	DroppedSamples    *prometheus.CounterVec
	RegisteredSources prometheus.Gauge
	PoolStarts        prometheus.Counter
	PoolShutdowns     prometheus.Counter
}

// NewReporterMetrics 在工厂的注册器上注册全部自身指标
func NewReporterMetrics(f *MetricFactory) *ReporterMetrics {
	return &ReporterMetrics{
		Firings:           f.NewReporterFiringsTotal(),
		FiringDuration:    f.NewReporterFiringDurationSeconds(),
		DroppedSamples:    f.NewReporterDroppedSamplesTotal(),
		RegisteredSources: f.NewReporterRegisteredSources(),
		PoolStarts:        f.NewReporterPoolStartsTotal(),
		PoolShutdowns:     f.NewReporterPoolShutdownsTotal(),
	}
}

// NewReporterFiringsTotal 上报任务执行次数
//
// 标签：
//
//	source:  指标源名称
//	outcome: ok | failed（failed 表示本次提前结束，任务仍保持调度）
func (f *MetricFactory) NewReporterFiringsTotal() *prometheus.CounterVec {
	return promauto.With(f.reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "reporter_firings_total",
			Help: "Total reporting task runs by outcome",
		},
		[]string{"source", "outcome"},
	)
}

// NewReporterFiringDurationSeconds 单次执行占用工作协程的耗时
// 分桶 0.001s ~ 2.048s
func (f *MetricFactory) NewReporterFiringDurationSeconds() *prometheus.HistogramVec {
	return promauto.With(f.reg).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reporter_firing_duration_seconds",
			Help:    "Duration of one reporting task run",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"source"},
	)
}

// NewReporterDroppedSamplesTotal 未上报的读数数量
func (f *MetricFactory) NewReporterDroppedSamplesTotal() *prometheus.CounterVec {
	return promauto.With(f.reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "reporter_dropped_samples_total",
			Help: "Readings dropped before emission by reason",
		},
		[]string{"source", "reason"},
	)
}

func (f *MetricFactory) NewReporterRegisteredSources() prometheus.Gauge {
	return promauto.With(f.reg).NewGauge(prometheus.GaugeOpts{
		Name: "reporter_registered_sources",
		Help: "Sources currently scheduled for reporting",
	})
}

func (f *MetricFactory) NewReporterPoolStartsTotal() prometheus.Counter {
	return promauto.With(f.reg).NewCounter(prometheus.CounterOpts{
		Name: "reporter_pool_starts_total",
		Help: "Times the shared worker pool was created",
	})
}

func (f *MetricFactory) NewReporterPoolShutdownsTotal() prometheus.Counter {
	return promauto.With(f.reg).NewCounter(prometheus.CounterOpts{
		Name: "reporter_pool_shutdowns_total",
		Help: "Times the shared worker pool was shut down",
	})
}
