package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/logger"
	backend "github.com/redis/go-redis/v9"
)

// 返回 0 表示已记录本次请求，否则返回需要等待的毫秒数
var slidingWindow = backend.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)
local count = redis.call("ZCARD", key)
if count < limit then
	redis.call("ZADD", key, now, ARGV[4])
	redis.call("PEXPIRE", key, window)
	return 0
end

local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
local wait = tonumber(oldest[2]) + window - now
if wait < 1 then
	wait = 1
end
return wait
`)

// Redis 基于有序集合的分布式滑动窗口限流器，多个进程共享同一窗口
type Redis struct {
	client *backend.Client
	prefix string
	limit  int
	window time.Duration

	now   Clock
	sleep Sleeper
}

// RedisOption 配置 Redis
type RedisOption func(*Redis)

// WithPrefix 设置 key 前缀
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = prefix }
}

// WithRedisClock 替换时间源
func WithRedisClock(c Clock) RedisOption {
	return func(r *Redis) { r.now = c }
}

// WithRedisSleeper 替换等待函数
func WithRedisSleeper(s Sleeper) RedisOption {
	return func(r *Redis) { r.sleep = s }
}

// NewRedis 创建 Redis 限流器
func NewRedis(client *backend.Client, limit int, window time.Duration, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		limit:  minLimit(limit),
		window: window,
		now:    time.Now,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) key(key string) string {
	return r.prefix + key
}

// Wait 实现 Limiter
func (r *Redis) Wait(ctx context.Context, key string) error {
	for {
		now := r.now().UnixMilli()
		waitMs, err := slidingWindow.Run(ctx, r.client, []string{r.key(key)},
			now, r.window.Milliseconds(), r.limit, uuid.NewString()).Int64()
		if err != nil {
			return fmt.Errorf("redis rate limit: %w", err)
		}
		if waitMs == 0 {
			return nil
		}

		wait := time.Duration(waitMs) * time.Millisecond
		logger.Log.WithField("key", key).Warnf("触发限流，等待 %s", wait)
		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Reset 实现 Limiter
func (r *Redis) Reset(key string) {
	if err := r.client.Del(context.Background(), r.key(key)).Err(); err != nil {
		logger.Log.WithField("key", key).Errorf("重置限流失败: %v", err)
	}
}

// Close 实现 Limiter，关闭 Redis 连接
func (r *Redis) Close() error {
	return r.client.Close()
}
