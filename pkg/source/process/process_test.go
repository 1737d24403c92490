package process

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/metrics-reporter/pkg/source"
)

func TestSnapshotCurrentProcess(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, int32(os.Getpid()), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "process", s.Name())

	got, err := s.SnapshotMetrics(ctx)
	require.NoError(t, err)

	rss, ok := got["process/memory/rss"].Float()
	require.True(t, ok)
	assert.Greater(t, rss, float64(0))

	if name, ok := got["process/name"]; ok {
		assert.Equal(t, source.KindOther, name.Kind())
	}

	nodes, err := s.SnapshotNodes(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	for _, display := range nodes {
		assert.True(t, strings.HasPrefix(display, "node."))
	}
}

func TestNewUnknownProcess(t *testing.T) {
	_, err := New(context.Background(), -1, zap.NewNop())
	assert.Error(t, err)
}
