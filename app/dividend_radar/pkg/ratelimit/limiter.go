// Package ratelimit 为外部行情接口提供按 key 区分的滑动窗口限流。
package ratelimit

import (
	"context"
	"time"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/config"
	backend "github.com/redis/go-redis/v9"
)

// 行情接口使用的限流 key
const (
	KeyAlphaVantage       = "alpha-vantage"
	KeyAlphaVantageDetail = "alpha-vantage-detail"
)

// Limiter 滑动窗口限流器
type Limiter interface {
	// Wait 阻塞直到 key 在当前窗口内还有余量，并记录本次请求
	Wait(ctx context.Context, key string) error
	// Reset 清空 key 的请求记录
	Reset(key string)
	// Close 释放后端连接
	Close() error
}

// Clock 返回当前时间，测试中可替换
type Clock func() time.Time

// Sleeper 等待 d 或 ctx 结束
type Sleeper func(ctx context.Context, d time.Duration) error

// minLimit 窗口内至少允许一次请求，否则永远无法放行
func minLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	return limit
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// New 按配置创建限流器
func New(cfg config.RateLimitConfig) Limiter {
	if cfg.Backend == "redis" {
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return NewRedis(client, cfg.MaxRequests, cfg.Window, WithPrefix(cfg.Redis.Prefix))
	}
	return NewMemory(cfg.MaxRequests, cfg.Window)
}
