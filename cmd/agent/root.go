package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metrics-reporter/cmd/server"
	"github.com/metrics-reporter/internal/scheduler"
	"github.com/metrics-reporter/pkg/config"
	"github.com/metrics-reporter/pkg/logger"
	"github.com/metrics-reporter/pkg/metrics"
	"github.com/metrics-reporter/pkg/registers"
	"github.com/metrics-reporter/pkg/signal"
	"github.com/metrics-reporter/pkg/source"
	"github.com/metrics-reporter/pkg/util"
)

const shutdownTimeout = 5 * time.Second

var cfgFile string

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "metrics-reporter",
		Short:         "Periodic runtime metrics reporter with Prometheus and OpenTelemetry sinks",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfigWithCli(cmd)
			if err != nil {
				return fmt.Errorf("load config (check the file path or pass -c): %w", err)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return run(ctx, cfg)
		},
	}
	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径")
	initServerFlags(cmd)
	initReporterFlags(cmd)
	initLogFlags(cmd)
	return cmd
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if err := logger.Init(cfg.Log); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	util.PrintBanner(os.Stdout, "metrics-reporter", "ColorBlue",
		fmt.Sprintf("mode=%s interval=%s sources=%v sinks=%v",
			cfg.Reporter.Mode, cfg.Reporter.Interval, cfg.Reporter.Sources, cfg.Reporter.Sinks))
	logger.Info("log initialization successful",
		zap.String("path", cfg.Log.Path),
		zap.String("level", cfg.Log.Level),
		zap.String("format", cfg.Log.Format))
	logger.Debug("configuration loaded", zap.String("path", cfgFile))

	const enableProcess = true
	registry, factory := registers.InitPromRegistry(enableProcess)

	backend, err := registers.BuildBackend(cfg, registers.SinkModules(factory, logger.L()))
	if err != nil {
		return err
	}
	sched := scheduler.New(cfg.Reporter, backend,
		scheduler.WithLogger(logger.Named("scheduler")),
		scheduler.WithMetrics(metrics.NewReporterMetrics(factory)),
	)

	srcs, err := registers.BuildSources(ctx, cfg, registers.SourceModules(logger.L()))
	if err != nil {
		return err
	}
	if err := registers.RegisterSources(sched, srcs, cfg.Reporter.Interval, logger.Named("registers")); err != nil {
		return err
	}

	httpServer := server.NewHTTPServer(cfg, logger.Named("http"), registry, sched)
	if err := httpServer.Start(); err != nil {
		registers.UnregisterSources(sched, srcs, logger.L())
		return fmt.Errorf("start HTTP server: %w", err)
	}

	return signal.WaitForShutdown(ctx, logger.L(), shutdownTimeout, func(ctx context.Context) error {
		return teardown(ctx, sched, srcs, httpServer)
	})
}

// pool teardown 依赖的调度器能力
type pool interface {
	registers.Registrar
	Running() bool
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// teardown 关闭顺序：注销全部指标源 → 确认工作池已销毁 → 关闭HTTP服务
func teardown(ctx context.Context, sched pool, srcs []source.MetricSource, httpServer shutdowner) error {
	registers.UnregisterSources(sched, srcs, logger.Named("registers"))
	if sched.Running() {
		return errors.New("scheduler still running after all sources were unregistered")
	}
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown HTTP server: %w", err)
	}
	logger.Info("all services shutdown successfully")
	return nil
}
