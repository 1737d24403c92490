package signal

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// WaitForShutdown 监听退出信号（SIGINT/SIGTERM 或 ctx 结束），在 timeout 内执行 shutdownFunc。
// 关闭失败或超时时返回错误，调用方据此以非零状态退出
func WaitForShutdown(ctx context.Context, logger *zap.Logger, timeout time.Duration, shutdownFunc func(context.Context) error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("service running, waiting for SIGINT/SIGTERM...")
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("context done, shutting down", zap.Error(ctx.Err()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- shutdownFunc(shutdownCtx) }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown failed", zap.Error(err))
			return err
		}
		logger.Info("shutdown completed")
		return nil
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded", zap.Duration("timeout", timeout))
		return fmt.Errorf("shutdown exceeded %s: %w", timeout, shutdownCtx.Err())
	}
}
