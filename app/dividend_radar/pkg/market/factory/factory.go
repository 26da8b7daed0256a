package factory

import (
	"fmt"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/config"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/market"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/market/alphavantage"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/market/dataset"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/market/gobankingrates"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/ratelimit"
)

// Providers 按优先级排列的数据源，以及可用的报价接口
type Providers struct {
	List   []market.Provider
	Quotes market.QuoteFetcher
	Status market.StatusFetcher
}

// NewAlphaVantage 根据配置创建 Alpha Vantage 客户端
func NewAlphaVantage(cfg *config.Config, limiter ratelimit.Limiter) *alphavantage.Client {
	av := cfg.Market.AlphaVantage
	return alphavantage.NewClient(av.APIKey, limiter,
		alphavantage.WithBaseURL(av.BaseURL),
		alphavantage.WithMaxSymbols(av.MaxSymbols),
		alphavantage.WithRequestDelay(av.RequestDelay),
		alphavantage.WithCacheTTL(av.CacheTTL),
	)
}

// NewProviders 根据配置创建数据源
func NewProviders(cfg *config.Config, limiter ratelimit.Limiter) (*Providers, error) {
	names := cfg.Market.Providers
	if len(names) == 0 {
		names = config.Default().Market.Providers
	}

	av := NewAlphaVantage(cfg, limiter)
	out := &Providers{Quotes: av, Status: av}
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		switch name {
		case "alphavantage":
			out.List = append(out.List, av)
		case "dataset":
			out.List = append(out.List, dataset.New())
		case "gobankingrates":
			gb := cfg.Market.GoBankingRates
			out.List = append(out.List, gobankingrates.NewScraper(gb.URL, gb.Timeout))
		default:
			return nil, fmt.Errorf("unknown market provider: %s", name)
		}
	}
	return out, nil
}
