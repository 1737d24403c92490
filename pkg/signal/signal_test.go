package signal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWaitForShutdownOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := WaitForShutdown(ctx, zap.NewNop(), time.Second, func(context.Context) error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)
}

func TestWaitForShutdownLogsFailure(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stuck := errors.New("http server stuck")
	err := WaitForShutdown(ctx, zap.New(core), time.Second, func(context.Context) error {
		return stuck
	})
	assert.ErrorIs(t, err, stuck)
	assert.Equal(t, 1, logs.FilterMessage("shutdown failed").Len())
}

func TestWaitForShutdownTimeout(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WaitForShutdown(ctx, zap.New(core), 10*time.Millisecond, func(c context.Context) error {
		<-c.Done()
		time.Sleep(50 * time.Millisecond)
		return c.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, logs.FilterMessage("shutdown timeout exceeded").Len())
}
