package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockRedisEvaler struct {
	lastScript string
	lastKeys   []string
	lastArgs   []interface{}
	result     int64
	err        error
}

func (m *mockRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	m.lastScript = script
	m.lastKeys = keys
	m.lastArgs = args
	cmd := redis.NewCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	cmd.SetVal(m.result)
	return cmd
}

func TestRedisLoginRateLimiterAllow(t *testing.T) {
	t.Run("nil receiver fail-open", func(t *testing.T) {
		var l *redisLoginRateLimiter
		if !l.Allow(context.Background(), "user@example.com") {
			t.Fatalf("expected fail-open for nil limiter")
		}
	})

	t.Run("empty key rejected", func(t *testing.T) {
		l := &redisLoginRateLimiter{
			client: &mockRedisEvaler{result: 1},
			window: time.Minute,
			max:    3,
			prefix: "login:rl:",
		}
		if l.Allow(context.Background(), "   ") {
			t.Fatalf("expected empty key to be rejected")
		}
	})

	t.Run("allow when count within max", func(t *testing.T) {
		mock := &mockRedisEvaler{result: 2}
		l := &redisLoginRateLimiter{
			client: mock,
			window: 2 * time.Minute,
			max:    3,
			prefix: "login:rl:",
		}
		if !l.Allow(context.Background(), " User@Example.com ") {
			t.Fatalf("expected allow when count <= max")
		}
		if len(mock.lastKeys) != 1 || mock.lastKeys[0] != "login:rl:user@example.com" {
			t.Fatalf("unexpected key normalization, got %+v", mock.lastKeys)
		}
		if len(mock.lastArgs) != 1 || mock.lastArgs[0] != 120 {
			t.Fatalf("expected TTL seconds=120, got %+v", mock.lastArgs)
		}
		if mock.lastScript != redisLoginAllowScript {
			t.Fatalf("expected script to match")
		}
	})

	t.Run("deny when count exceeds max", func(t *testing.T) {
		l := &redisLoginRateLimiter{
			client: &mockRedisEvaler{result: 4},
			window: time.Minute,
			max:    3,
			prefix: "login:rl:",
		}
		if l.Allow(context.Background(), "user@example.com") {
			t.Fatalf("expected deny when count > max")
		}
	})

	t.Run("redis error fail-open", func(t *testing.T) {
		l := &redisLoginRateLimiter{
			client: &mockRedisEvaler{err: errors.New("redis down")},
			window: time.Minute,
			max:    3,
			prefix: "login:rl:",
		}
		if !l.Allow(context.Background(), "user@example.com") {
			t.Fatalf("expected fail-open on redis errors")
		}
	})
}

func TestMemoryLoginRateLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("blocks after max attempts per key", func(t *testing.T) {
		l := NewMemoryLoginRateLimiter(time.Minute, 2)
		if !l.Allow(ctx, "a@example.com") || !l.Allow(ctx, " A@Example.com ") {
			t.Fatalf("expected first two attempts allowed")
		}
		if l.Allow(ctx, "a@example.com") {
			t.Fatalf("expected third attempt blocked")
		}
		if !l.Allow(ctx, "b@example.com") {
			t.Fatalf("expected other keys unaffected")
		}
	})

	t.Run("window slides", func(t *testing.T) {
		l := NewMemoryLoginRateLimiter(40*time.Millisecond, 1)
		if !l.Allow(ctx, "a@example.com") {
			t.Fatalf("expected first attempt allowed")
		}
		if l.Allow(ctx, "a@example.com") {
			t.Fatalf("expected second attempt blocked")
		}
		time.Sleep(60 * time.Millisecond)
		if !l.Allow(ctx, "a@example.com") {
			t.Fatalf("expected attempt allowed after window")
		}
	})

	t.Run("stale keys are dropped", func(t *testing.T) {
		l := NewMemoryLoginRateLimiter(30*time.Millisecond, 5).(*memoryLoginRateLimiter)
		for _, key := range []string{"a@example.com", "b@example.com", "c@example.com"} {
			l.Allow(ctx, key)
		}
		time.Sleep(50 * time.Millisecond)
		l.Allow(ctx, "d@example.com")

		l.mu.Lock()
		defer l.mu.Unlock()
		if len(l.hits) != 1 {
			t.Fatalf("expected only the fresh key to remain, got %d keys", len(l.hits))
		}
		if _, ok := l.hits["d@example.com"]; !ok {
			t.Fatalf("expected fresh key to be tracked")
		}
	})

	t.Run("empty key rejected", func(t *testing.T) {
		l := NewMemoryLoginRateLimiter(time.Minute, 5)
		if l.Allow(ctx, "  ") {
			t.Fatalf("expected empty key to be rejected")
		}
	})
}
