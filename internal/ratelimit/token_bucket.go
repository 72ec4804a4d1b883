package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBucket 令牌桶限流器
type TokenBucket struct {
	rate           float64 // 每秒生成的令牌数
	capacity       float64
	tokens         float64
	lastRefillTime time.Time
	mutex          sync.Mutex
	now            func() time.Time
}

// NewTokenBucket 按每分钟请求数创建限流器
// capacity 不大于0时取 qpm 的一半，至少为1
func NewTokenBucket(qpm int, capacity int) *TokenBucket {
	if capacity <= 0 {
		capacity = qpm / 2
		if capacity <= 0 {
			capacity = 1
		}
	}
	tb := &TokenBucket{
		rate:     float64(qpm) / 60.0,
		capacity: float64(capacity),
		tokens:   float64(capacity), // 初始填满
		now:      time.Now,
	}
	tb.lastRefillTime = tb.now()
	return tb
}

// WithClock 替换时间源
func (tb *TokenBucket) WithClock(now func() time.Time) *TokenBucket {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()
	tb.now = now
	tb.lastRefillTime = now()
	return tb
}

func (tb *TokenBucket) refill() {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefillTime).Seconds()
	if elapsed <= 0 {
		return
	}
	tb.lastRefillTime = now

	tb.tokens += elapsed * tb.rate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
}

// Allow 尝试消耗一个令牌
func (tb *TokenBucket) Allow() bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill()
	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// RetryAfter 距离下一个令牌可用的时间
func (tb *TokenBucket) RetryAfter() time.Duration {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill()
	if tb.tokens >= 1.0 || tb.rate <= 0 {
		return 0
	}
	return time.Duration((1.0 - tb.tokens) / tb.rate * float64(time.Second))
}

// Wait 阻塞直到拿到令牌或 ctx 结束
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		if tb.Allow() {
			return nil
		}
		wait := tb.RetryAfter()
		if wait <= 0 {
			wait = time.Millisecond
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
