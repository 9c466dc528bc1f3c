package database

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/kasu/retention-backend/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, time.Millisecond, zerolog.Nop(), "test", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_ReturnsLastError(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 2, time.Millisecond, zerolog.Nop(), "test", func(context.Context) error {
		calls++
		return errors.New("down")
	})

	require.EqualError(t, err, "down")
	assert.Equal(t, 2, calls)
}

func TestWithRetry_LogsEachRetry(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	err := withRetry(context.Background(), 3, time.Millisecond, log, "postgres", func(context.Context) error {
		return errors.New("refused")
	})

	require.EqualError(t, err, "refused")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"target":"postgres"`)
	assert.Contains(t, lines[0], `"attempt":1`)
	assert.Contains(t, lines[1], `"attempt":2`)
}

func TestWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := withRetry(ctx, 10, time.Hour, zerolog.Nop(), "test", func(context.Context) error {
		calls++
		cancel()
		return errors.New("down")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{
		RedisURL:          "redis://" + mr.Addr() + "/0",
		ConnectAttempts:   1,
		ConnectRetryDelay: time.Millisecond,
	}

	rdb, err := NewRedisClient(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer rdb.Close()

	require.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())
	v, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestNewRedisClient_Errors(t *testing.T) {
	_, err := NewRedisClient(context.Background(), &config.Config{RedisURL: "://bad"}, zerolog.Nop())
	require.ErrorContains(t, err, "parse redis URL")

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedisClient(context.Background(), &config.Config{
		RedisURL:          "redis://" + addr,
		ConnectAttempts:   2,
		ConnectRetryDelay: time.Millisecond,
	}, zerolog.Nop())
	require.ErrorContains(t, err, "ping redis")
}
