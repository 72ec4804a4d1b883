package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestTokenBucket_AllowAndRefill(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	tb := NewTokenBucket(60, 2).WithClock(clock.now) // 每秒一个令牌

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "桶已空")
	assert.Equal(t, time.Second, tb.RetryAfter())

	clock.t = clock.t.Add(500 * time.Millisecond)
	assert.False(t, tb.Allow())

	clock.t = clock.t.Add(500 * time.Millisecond)
	assert.True(t, tb.Allow())

	clock.t = clock.t.Add(time.Hour)
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "令牌数不超过容量")
}

func TestNewTokenBucket_DefaultCapacity(t *testing.T) {
	assert.Equal(t, 5.0, NewTokenBucket(10, 0).capacity)
	assert.Equal(t, 1.0, NewTokenBucket(1, 0).capacity)
}

func TestTokenBucket_WaitCancelled(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	tb := NewTokenBucket(1, 1).WithClock(clock.now)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := tb.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTokenBucket_Wait(t *testing.T) {
	tb := NewTokenBucket(6000, 1) // 每10ms一个令牌
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, tb.Wait(ctx))
}
