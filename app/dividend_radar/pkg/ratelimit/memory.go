package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/logger"
)

// Memory 进程内滑动窗口限流器，可并发使用
type Memory struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	requests map[string][]time.Time

	now   Clock
	sleep Sleeper
}

// MemoryOption 配置 Memory
type MemoryOption func(*Memory)

// WithClock 替换时间源
func WithClock(c Clock) MemoryOption {
	return func(m *Memory) { m.now = c }
}

// WithSleeper 替换等待函数
func WithSleeper(s Sleeper) MemoryOption {
	return func(m *Memory) { m.sleep = s }
}

// NewMemory 创建进程内限流器，窗口 window 内每个 key 最多 limit 次请求
func NewMemory(limit int, window time.Duration, opts ...MemoryOption) *Memory {
	m := &Memory{
		limit:    minLimit(limit),
		window:   window,
		requests: make(map[string][]time.Time),
		now:      time.Now,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Wait 实现 Limiter
func (m *Memory) Wait(ctx context.Context, key string) error {
	for {
		wait, ok := m.reserve(key)
		if ok {
			return nil
		}
		logger.Log.WithField("key", key).Warnf("触发限流，等待 %s", wait)
		if err := m.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// reserve 在一次加锁内完成清理、判断与记录
func (m *Memory) reserve(key string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cutoff := now.Add(-m.window)
	kept := m.requests[key][:0]
	for _, t := range m.requests[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) < m.limit {
		m.requests[key] = append(kept, now)
		return 0, true
	}
	m.requests[key] = kept

	wait := kept[0].Add(m.window).Sub(now)
	if wait <= 0 {
		wait = time.Millisecond
	}
	return wait, false
}

// Reset 实现 Limiter
func (m *Memory) Reset(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.requests, key)
}

// Close 实现 Limiter，进程内限流器无需释放
func (m *Memory) Close() error { return nil }

// Count 返回 key 在当前窗口内的请求数
func (m *Memory) Count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-m.window)
	n := 0
	for _, t := range m.requests[key] {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}
