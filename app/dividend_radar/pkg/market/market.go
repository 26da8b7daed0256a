// Package market 定义行情数据源接口及公共的标的参考数据。
package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
)

var (
	// ErrThrottled 数据源返回限流提示，本批次应停止继续请求
	ErrThrottled = errors.New("provider throttled")
	// ErrNoCredential 数据源缺少 API Key
	ErrNoCredential = errors.New("provider credential not configured")
)

// APIError 数据源针对单个标的返回的错误
type APIError struct {
	Provider string
	Symbol   string
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error for %s: %s", e.Provider, e.Symbol, e.Message)
}

// Provider 行情数据源
type Provider interface {
	// Name 数据源名称，用于日志与错误记录
	Name() string
	// Fetch 按检索词与偏好拉取标的数据，结果尚未按偏好过滤
	Fetch(ctx context.Context, query string, prefs model.UserPreferences) ([]model.InvestmentRecord, error)
}

// QuoteFetcher 实时报价
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, symbol string) (*model.Quote, error)
}

// StatusFetcher 市场开闭市状态
type StatusFetcher interface {
	MarketStatus(ctx context.Context) (*model.MarketStatus, error)
}
