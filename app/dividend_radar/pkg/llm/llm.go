// Package llm 封装大模型补全调用：统一超时、重试、限速，并把响应归一化为字符串。
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/config"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/logger"
)

var (
	// ErrNotConfigured 未配置 API Key
	ErrNotConfigured = errors.New("llm api key is not configured")
	// ErrEmptyResponse 模型返回空内容
	ErrEmptyResponse = errors.New("empty response from llm")
)

// Client 大模型补全客户端
type Client interface {
	// Complete 发送单轮提示词，返回去除首尾空白后的文本
	Complete(ctx context.Context, prompt string) (string, error)
	// Available 是否配置了凭据
	Available() bool
}

// completer 由各厂商实现的单次调用
type completer interface {
	complete(ctx context.Context, prompt string) (string, error)
}

// Options 通用调用参数
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	Limiter    *rate.Limiter
}

// OptionsFromConfig 从配置生成调用参数
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		Timeout:    cfg.LLM.Timeout,
		MaxRetries: cfg.LLM.MaxRetries,
		BaseDelay:  time.Second,
	}
	if cfg.Concurrency.RPM > 0 {
		burst := cfg.Concurrency.QPS
		if burst <= 0 {
			burst = 1
		}
		opts.Limiter = rate.NewLimiter(rate.Limit(float64(cfg.Concurrency.RPM)/60.0), burst)
	}
	return opts
}

// retrying 为 completer 加上超时、重试、限速
type retrying struct {
	provider string
	inner    completer
	opts     Options
}

func newRetrying(provider string, inner completer, opts Options) *retrying {
	return &retrying{provider: provider, inner: inner, opts: opts}
}

func (c *retrying) Available() bool { return true }

func (c *retrying) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for i := 0; i <= c.opts.MaxRetries; i++ {
		if c.opts.Limiter != nil {
			if err := c.opts.Limiter.Wait(ctx); err != nil {
				return "", err
			}
		}

		content, err := c.attempt(ctx, prompt)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		if i < c.opts.MaxRetries {
			delay := c.opts.BaseDelay * time.Duration(1<<i)
			logger.Log.Warnf("LLM [%s] 调用失败，%s 后重试 (%d/%d): %v", c.provider, delay, i+1, c.opts.MaxRetries, err)
			if err := sleep(ctx, delay); err != nil {
				return "", err
			}
		}
	}
	return "", fmt.Errorf("%s completion failed after %d attempts: %w", c.provider, c.opts.MaxRetries+1, lastErr)
}

func (c *retrying) attempt(ctx context.Context, prompt string) (string, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	content, err := c.inner.complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Unconfigured 缺少凭据时使用的客户端，调用立即失败
type Unconfigured struct {
	// Key 缺失的环境变量名
	Key string
}

func (u Unconfigured) Available() bool { return false }

func (u Unconfigured) Complete(context.Context, string) (string, error) {
	if u.Key == "" {
		return "", ErrNotConfigured
	}
	return "", fmt.Errorf("%w: set %s", ErrNotConfigured, u.Key)
}
