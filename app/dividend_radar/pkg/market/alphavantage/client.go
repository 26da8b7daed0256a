package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/logger"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/market"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/ratelimit"
)

const (
	providerName   = "Alpha Vantage"
	defaultBaseURL = "https://www.alphavantage.co/query"
	userAgent      = "Dividend-Radar/1.0"
)

// Client Alpha Vantage API 客户端
type Client struct {
	apiKey     string
	baseURL    string
	client     *http.Client
	limiter    ratelimit.Limiter
	maxSymbols int
	delay      time.Duration
	cacheTTL   time.Duration
	now        func() time.Time

	mu    sync.Mutex
	cache map[string]cachedOverview
}

type cachedOverview struct {
	overview *Overview
	at       time.Time
}

// Option 配置 Client
type Option func(*Client)

// WithBaseURL 替换接口地址
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient 替换 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithMaxSymbols 单次最多探测的标的数
func WithMaxSymbols(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxSymbols = n
		}
	}
}

// WithRequestDelay 相邻两次标的请求之间的间隔
func WithRequestDelay(d time.Duration) Option {
	return func(c *Client) { c.delay = d }
}

// WithCacheTTL 概览数据缓存时长，0 表示不缓存
func WithCacheTTL(d time.Duration) Option {
	return func(c *Client) { c.cacheTTL = d }
}

// WithClock 替换时间源
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient 创建 Alpha Vantage 客户端，apiKey 为空时 Fetch 返回空结果
func NewClient(apiKey string, limiter ratelimit.Limiter, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		limiter:    limiter,
		maxSymbols: 5,
		delay:      time.Second,
		now:        time.Now,
		cache:      make(map[string]cachedOverview),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	_ market.Provider      = (*Client)(nil)
	_ market.QuoteFetcher  = (*Client)(nil)
	_ market.StatusFetcher = (*Client)(nil)
)

// Name implements market.Provider
func (c *Client) Name() string { return providerName }

// Configured 是否配置了 API Key
func (c *Client) Configured() bool { return c.apiKey != "" }

// Fetch implements market.Provider
func (c *Client) Fetch(ctx context.Context, query string, prefs model.UserPreferences) ([]model.InvestmentRecord, error) {
	if !c.Configured() {
		return nil, nil
	}
	if err := c.limiter.Wait(ctx, ratelimit.KeyAlphaVantage); err != nil {
		return nil, err
	}

	symbols := market.Universe(query, prefs.InvestmentTypes)
	if len(symbols) > c.maxSymbols {
		symbols = symbols[:c.maxSymbols]
	}

	var results []model.InvestmentRecord
	for i, symbol := range symbols {
		ov, cached, err := c.overview(ctx, symbol)
		if errors.Is(err, market.ErrThrottled) {
			logger.Log.Warnf("Alpha Vantage 触发限流，提前结束本批次 (已获取 %d 条)", len(results))
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			logger.Log.WithField("symbol", symbol).Warnf("Alpha Vantage 获取概览失败，跳过: %v", err)
			continue
		}
		results = append(results, c.toRecord(symbol, ov))

		if !cached && i < len(symbols)-1 && c.delay > 0 {
			if err := sleep(ctx, c.delay); err != nil {
				return results, err
			}
		}
	}
	return results, nil
}

// Overview OVERVIEW 接口响应，数值均为字符串
type Overview struct {
	Symbol               string `json:"Symbol"`
	AssetType            string `json:"AssetType"`
	Name                 string `json:"Name"`
	Description          string `json:"Description"`
	Country              string `json:"Country"`
	Sector               string `json:"Sector"`
	DividendYield        string `json:"DividendYield"`
	MarketCapitalization string `json:"MarketCapitalization"`
	PERatio              string `json:"PERatio"`
	EPS                  string `json:"EPS"`
	Beta                 string `json:"Beta"`
	WeekHigh52           string `json:"52WeekHigh"`
}

// GlobalQuote GLOBAL_QUOTE 接口响应
type GlobalQuote struct {
	Quote map[string]string `json:"Global Quote"`
}

// envelope 接口级别的提示信息
type envelope struct {
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

func (c *Client) overview(ctx context.Context, symbol string) (*Overview, bool, error) {
	if ov, ok := c.cached(symbol); ok {
		return ov, true, nil
	}
	if err := c.limiter.Wait(ctx, ratelimit.KeyAlphaVantageDetail); err != nil {
		return nil, false, err
	}

	var ov Overview
	if err := c.get(ctx, "OVERVIEW", symbol, &ov); err != nil {
		return nil, false, err
	}
	if ov.Symbol == "" || ov.Name == "" {
		return nil, false, &market.APIError{Provider: providerName, Symbol: symbol, Message: "empty overview"}
	}

	if c.cacheTTL > 0 {
		c.mu.Lock()
		c.cache[symbol] = cachedOverview{overview: &ov, at: c.now()}
		c.mu.Unlock()
	}
	return &ov, false, nil
}

func (c *Client) cached(symbol string) (*Overview, bool) {
	if c.cacheTTL <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[symbol]
	if !ok || c.now().Sub(entry.at) > c.cacheTTL {
		return nil, false
	}
	return entry.overview, true
}

func (c *Client) toRecord(symbol string, ov *Overview) model.InvestmentRecord {
	profile, known := market.ProfileOf(symbol)

	yield := parseFloat(ov.DividendYield) * 100
	if yield <= 0 {
		yield = market.FallbackYield(symbol)
	}

	typ := model.TypeStock
	if strings.EqualFold(ov.AssetType, "ETF") || market.IsETF(symbol) {
		typ = model.TypeETF
	}

	sector := ov.Sector
	if sector == "" && known {
		sector = profile.Sector
	}
	if sector == "" {
		sector = "Diversified"
	}
	region := ov.Country
	if region == "" && known {
		region = profile.Region
	}
	if region == "" {
		region = "USA"
	}

	desc := ov.Description
	if desc == "" && typ == model.TypeETF {
		desc = ov.Name + " is a diversified ETF"
	}

	return model.InvestmentRecord{
		Symbol:        ov.Symbol,
		Name:          ov.Name,
		DividendYield: yield,
		Sector:        sector,
		Type:          typ,
		Price:         positive(parseFloat(ov.WeekHigh52)),
		MarketCap:     positive(parseFloat(ov.MarketCapitalization)),
		PERatio:       positive(parseFloat(ov.PERatio)),
		EPS:           nonZero(parseFloat(ov.EPS)),
		Beta:          nonZero(parseFloat(ov.Beta)),
		Region:        region,
		Description:   desc,
		Source:        providerName,
		Timestamp:     c.now(),
	}
}

// FetchQuote implements market.QuoteFetcher
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	if !c.Configured() {
		return nil, market.ErrNoCredential
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if err := c.limiter.Wait(ctx, ratelimit.KeyAlphaVantageDetail); err != nil {
		return nil, err
	}

	var gq GlobalQuote
	if err := c.get(ctx, "GLOBAL_QUOTE", symbol, &gq); err != nil {
		return nil, err
	}
	q := gq.Quote
	if len(q) == 0 || q["05. price"] == "" {
		return nil, &market.APIError{Provider: providerName, Symbol: symbol, Message: "no quote data"}
	}

	volume, _ := strconv.ParseInt(q["06. volume"], 10, 64)
	return &model.Quote{
		Symbol:           q["01. symbol"],
		Open:             parseFloat(q["02. open"]),
		High:             parseFloat(q["03. high"]),
		Low:              parseFloat(q["04. low"]),
		Price:            parseFloat(q["05. price"]),
		Volume:           volume,
		LatestTradingDay: q["07. latest trading day"],
		PreviousClose:    parseFloat(q["08. previous close"]),
		Change:           parseFloat(q["09. change"]),
		ChangePercent:    q["10. change percent"],
		Source:           providerName,
		Timestamp:        c.now(),
	}, nil
}

// MarketStatus implements market.StatusFetcher，以 SPY 报价的最近交易日判断是否开市
func (c *Client) MarketStatus(ctx context.Context) (*model.MarketStatus, error) {
	q, err := c.FetchQuote(ctx, "SPY")
	if err != nil {
		return nil, err
	}
	now := c.now()
	status := "closed"
	if sessionOpen(now, q.LatestTradingDay) {
		status = "open"
	}
	return &model.MarketStatus{
		Timestamp:    now,
		MarketStatus: status,
		LastUpdated:  q.LatestTradingDay,
	}, nil
}

// sessionOpen 纽约时间工作日 09:30-16:00 且最近交易日为当天
func sessionOpen(now time.Time, latestTradingDay string) bool {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.FixedZone("EST", -5*3600)
	}
	ny := now.In(loc)
	if ny.Weekday() == time.Saturday || ny.Weekday() == time.Sunday {
		return false
	}
	if ny.Format(time.DateOnly) != latestTradingDay {
		return false
	}
	minutes := ny.Hour()*60 + ny.Minute()
	return minutes >= 9*60+30 && minutes < 16*60
}

// get 调用接口并识别限流与错误提示
func (c *Client) get(ctx context.Context, function, symbol string, out any) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("function", function)
	q.Set("symbol", symbol)
	q.Set("apikey", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read body failed: %w", err)
	}
	if res.StatusCode == http.StatusTooManyRequests {
		return market.ErrThrottled
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("alpha vantage api error (status %d): %s", res.StatusCode, string(body))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("unmarshal response failed: %w", err)
	}
	if env.Note != "" || env.Information != "" {
		return market.ErrThrottled
	}
	if env.ErrorMessage != "" {
		return &market.APIError{Provider: providerName, Symbol: symbol, Message: env.ErrorMessage}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response failed: %w", err)
	}
	return nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func positive(v float64) *float64 {
	if v > 0 {
		return model.Float(v)
	}
	return nil
}

func nonZero(v float64) *float64 {
	if v != 0 {
		return model.Float(v)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
