package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerFactoryNames(t *testing.T) {
	f, err := NewWorkerFactory("metrics-reporter-%d")
	require.NoError(t, err)
	assert.Equal(t, "metrics-reporter-1", f.Next())
	assert.Equal(t, "metrics-reporter-2", f.Next())
}

func TestWorkerFactoryRejectsMalformedFormat(t *testing.T) {
	for _, format := range []string{
		"metrics-reporter",       // 无占位符
		"metrics-reporter-%s",    // 占位符类型错误
		"metrics-reporter-%d-%d", // 缺少参数
		"metrics-reporter-%",     // 孤立的 %
	} {
		t.Run(format, func(t *testing.T) {
			_, err := NewWorkerFactory(format)
			assert.ErrorIs(t, err, ErrInvalidNameFormat)
		})
	}
}

func TestWorkerFactoryAcceptsPaddedVerb(t *testing.T) {
	f, err := NewWorkerFactory("worker-%03d")
	require.NoError(t, err)
	assert.Equal(t, "worker-001", f.Next())
}
