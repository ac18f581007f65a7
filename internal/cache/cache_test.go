package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct{ lines []string }

func (l *recordingLogger) Warnf(format string, args ...interface{}) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func TestLRUQueryCache(t *testing.T) {
	c, err := NewLRUQueryCache(2)
	require.NoError(t, err)
	ctx := context.Background()

	c.Set(ctx, "a", []float32{1})
	c.Set(ctx, "b", []float32{2})
	c.Set(ctx, "c", []float32{3})

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok, "oldest entry evicted")
	got, ok := c.Get(ctx, "c")
	assert.True(t, ok)
	assert.Equal(t, []float32{3}, got)
	assert.Equal(t, 2, c.Len())
}

func TestNewLRUQueryCache_InvalidSize(t *testing.T) {
	_, err := NewLRUQueryCache(0)
	assert.Error(t, err)
}

func TestRedisQueryCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	ctx := context.Background()
	client, err := NewRedisClient(ctx, "redis://"+mr.Addr())
	require.NoError(t, err)
	defer client.Close()

	c := NewRedisQueryCache(client, time.Hour, nil)

	_, ok := c.Get(ctx, "qemb:minilm:abc")
	assert.False(t, ok)

	c.Set(ctx, "qemb:minilm:abc", []float32{0.5, -0.25})
	got, ok := c.Get(ctx, "qemb:minilm:abc")
	require.True(t, ok)
	assert.Equal(t, []float32{0.5, -0.25}, got)

	mr.FastForward(2 * time.Hour)
	_, ok = c.Get(ctx, "qemb:minilm:abc")
	assert.False(t, ok, "entry expires after ttl")
}

func TestRedisQueryCache_DegradesWhenDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	logger := &recordingLogger{}
	c := NewRedisQueryCache(client, time.Hour, logger)

	mr.Close()

	c.Set(context.Background(), "k", []float32{1})
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
	assert.NotEmpty(t, logger.lines)
}

func TestRedisQueryCache_CorruptEntry(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	require.NoError(t, mr.Set("k", "not json"))

	logger := &recordingLogger{}
	_, ok := NewRedisQueryCache(client, time.Hour, logger).Get(context.Background(), "k")
	assert.False(t, ok)
	assert.Len(t, logger.lines, 1)
}
