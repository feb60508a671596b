package persistence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront/internal/config"
)

func TestNewRedisFromAddr(t *testing.T) {
	srv := miniredis.RunT(t)

	r, err := NewRedis(context.Background(), config.RedisConfig{Addr: srv.Addr()}, zap.NewNop())
	require.NoError(t, err)
	defer r.Close()

	assert.NoError(t, r.Ping(context.Background()))
}

func TestNewRedisFromURL(t *testing.T) {
	srv := miniredis.RunT(t)

	r, err := NewRedis(context.Background(), config.RedisConfig{URL: "redis://" + srv.Addr() + "/0"}, zap.NewNop())
	require.NoError(t, err)
	defer r.Close()

	assert.NoError(t, r.Ping(context.Background()))
}

func TestNewRedisInvalidURL(t *testing.T) {
	_, err := NewRedis(context.Background(), config.RedisConfig{URL: "not a url"}, zap.NewNop())
	assert.Error(t, err)
}

func TestRedisPingUnconfigured(t *testing.T) {
	var r *Redis
	assert.ErrorIs(t, r.Ping(context.Background()), ErrRedisNotConfigured)
}
