package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoginLimiterWithoutRedisAllows(t *testing.T) {
	l := NewLoginLimiter(Params{Config: config.Config{LoginRate: 1, LoginBurst: 1}, Log: zap.NewNop()})
	assert.False(t, l.Enabled())
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(context.Background(), "127.0.0.1").Allowed)
	}

	var nilLimiter *LoginLimiter
	assert.True(t, nilLimiter.Allow(context.Background(), "x").Allowed)
}

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, time.Second, bucketTTL(0, 5))
	assert.Equal(t, 50*time.Second, bucketTTL(0.2, 5))
	assert.Equal(t, time.Second, bucketTTL(100, 1))
}

func TestDecide(t *testing.T) {
	d, err := decide([]int64{1, 3500, 1_700_000_000_000}, 0.5, 5)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 3, d.Remaining)
	assert.Equal(t, 5, d.Limit)
	assert.Zero(t, d.RetryAfter)

	d, err = decide([]int64{0, 250, 1_700_000_000_000}, 0.5, 5)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 1500*time.Millisecond, d.RetryAfter)
	assert.Equal(t, time.UnixMilli(1_700_000_001_500), d.ResetAt)

	_, err = decide([]int64{1}, 0.5, 5)
	assert.ErrorIs(t, err, ErrBadReply)
}

func TestTakeWithoutRedis(t *testing.T) {
	var b *TokenBucket
	_, err := b.Take(context.Background(), "k", 1, 1)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
