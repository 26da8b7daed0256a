package alphavantage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/logger"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/market"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/ratelimit"
)

func TestMain(m *testing.M) {
	logger.Discard()
	m.Run()
}

// fakeAPI 按 symbol 返回预设响应体，并记录请求顺序
type fakeAPI struct {
	mu       sync.Mutex
	bodies   map[string]string
	requests []string
}

func (f *fakeAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		symbol := r.URL.Query().Get("symbol")
		fn := r.URL.Query().Get("function")

		f.mu.Lock()
		f.requests = append(f.requests, fn+":"+symbol)
		body, ok := f.bodies[fn+":"+symbol]
		f.mu.Unlock()

		if !ok {
			body = `{}`
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, body)
	}
}

func overviewBody(symbol, name, yield string) string {
	return fmt.Sprintf(`{"Symbol":%q,"AssetType":"ETF","Name":%q,"DividendYield":%q,"52WeekHigh":"80.5","MarketCapitalization":"None"}`,
		symbol, name, yield)
}

func newTestClient(t *testing.T, api *fakeAPI, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	base := []Option{WithBaseURL(srv.URL), WithRequestDelay(0)}
	return NewClient("test-key", ratelimit.NewMemory(100, time.Minute), append(base, opts...)...)
}

func etfPrefs() model.UserPreferences {
	return model.UserPreferences{InvestmentTypes: []model.InvestmentType{model.TypeETF}}
}

func TestFetch_NoKeyReturnsEmpty(t *testing.T) {
	c := NewClient("", ratelimit.NewMemory(5, time.Second))
	recs, err := c.Fetch(context.Background(), "dividend", etfPrefs())
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.False(t, c.Configured())
}

func TestFetch_NormalizesOverview(t *testing.T) {
	api := &fakeAPI{bodies: map[string]string{
		"OVERVIEW:VYM":  overviewBody("VYM", "Vanguard High Dividend Yield ETF", "0.0285"),
		"OVERVIEW:SCHD": overviewBody("SCHD", "Schwab US Dividend Equity ETF", "None"),
	}}
	c := newTestClient(t, api, WithMaxSymbols(2))

	recs, err := c.Fetch(context.Background(), "high dividend ETFs", etfPrefs())
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "VYM", recs[0].Symbol)
	assert.InDelta(t, 2.85, recs[0].DividendYield, 1e-9)
	assert.Equal(t, model.TypeETF, recs[0].Type)
	assert.Equal(t, "Finance", recs[0].Sector)
	assert.Equal(t, "USA", recs[0].Region)
	require.NotNil(t, recs[0].Price)
	assert.Equal(t, 80.5, *recs[0].Price)
	assert.Nil(t, recs[0].MarketCap)
	assert.Equal(t, "Alpha Vantage", recs[0].Source)
	assert.Equal(t, "Vanguard High Dividend Yield ETF is a diversified ETF", recs[0].Description)

	// 缺失股息率时使用参考值
	assert.Equal(t, 3.4, recs[1].DividendYield)
}

func TestFetch_CapsSymbols(t *testing.T) {
	api := &fakeAPI{bodies: map[string]string{}}
	c := newTestClient(t, api, WithMaxSymbols(3))

	_, err := c.Fetch(context.Background(), "", etfPrefs())
	require.NoError(t, err)
	assert.Equal(t, []string{"OVERVIEW:VYM", "OVERVIEW:SCHD", "OVERVIEW:HDV"}, api.requests)
}

func TestFetch_ThrottleStopsBatch(t *testing.T) {
	api := &fakeAPI{bodies: map[string]string{
		"OVERVIEW:VYM":  overviewBody("VYM", "Vanguard High Dividend Yield ETF", "0.028"),
		"OVERVIEW:SCHD": `{"Note":"Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute"}`,
		"OVERVIEW:HDV":  overviewBody("HDV", "iShares Core High Dividend ETF", "0.031"),
	}}
	c := newTestClient(t, api)

	recs, err := c.Fetch(context.Background(), "", etfPrefs())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "VYM", recs[0].Symbol)
	assert.Equal(t, []string{"OVERVIEW:VYM", "OVERVIEW:SCHD"}, api.requests)
}

func TestFetch_ErrorMessageSkipsSymbol(t *testing.T) {
	api := &fakeAPI{bodies: map[string]string{
		"OVERVIEW:VYM":  `{"Error Message":"Invalid API call"}`,
		"OVERVIEW:SCHD": overviewBody("SCHD", "Schwab US Dividend Equity ETF", "0.034"),
	}}
	c := newTestClient(t, api, WithMaxSymbols(2))

	recs, err := c.Fetch(context.Background(), "", etfPrefs())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "SCHD", recs[0].Symbol)
}

func TestFetch_UsesOverviewCache(t *testing.T) {
	api := &fakeAPI{bodies: map[string]string{
		"OVERVIEW:VYM": overviewBody("VYM", "Vanguard High Dividend Yield ETF", "0.028"),
	}}
	c := newTestClient(t, api, WithMaxSymbols(1), WithCacheTTL(time.Minute))

	for i := 0; i < 3; i++ {
		recs, err := c.Fetch(context.Background(), "", etfPrefs())
		require.NoError(t, err)
		require.Len(t, recs, 1)
	}
	assert.Len(t, api.requests, 1)
}

func TestFetch_HTTP429IsThrottle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	c := NewClient("test-key", ratelimit.NewMemory(100, time.Minute), WithBaseURL(srv.URL))

	_, _, err := c.overview(context.Background(), "VYM")
	assert.ErrorIs(t, err, market.ErrThrottled)
}

func TestFetchQuote(t *testing.T) {
	api := &fakeAPI{bodies: map[string]string{
		"GLOBAL_QUOTE:SCHD": `{"Global Quote":{"01. symbol":"SCHD","02. open":"27.10","03. high":"27.40","04. low":"27.00",
			"05. price":"27.31","06. volume":"1234567","07. latest trading day":"2024-06-03",
			"08. previous close":"27.05","09. change":"0.26","10. change percent":"0.9612%"}}`,
	}}
	c := newTestClient(t, api)

	q, err := c.FetchQuote(context.Background(), "schd")
	require.NoError(t, err)
	assert.Equal(t, "SCHD", q.Symbol)
	assert.Equal(t, 27.31, q.Price)
	assert.Equal(t, int64(1234567), q.Volume)
	assert.Equal(t, "0.9612%", q.ChangePercent)
	assert.Equal(t, "2024-06-03", q.LatestTradingDay)
}

func TestFetchQuote_Errors(t *testing.T) {
	api := &fakeAPI{bodies: map[string]string{
		"GLOBAL_QUOTE:ZZZZ": `{"Global Quote":{}}`,
	}}
	c := newTestClient(t, api)

	_, err := c.FetchQuote(context.Background(), "ZZZZ")
	var apiErr *market.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "ZZZZ", apiErr.Symbol)

	_, err = NewClient("", ratelimit.NewMemory(1, time.Second)).FetchQuote(context.Background(), "SCHD")
	assert.ErrorIs(t, err, market.ErrNoCredential)
}

func TestMarketStatus(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	api := &fakeAPI{bodies: map[string]string{
		"GLOBAL_QUOTE:SPY": `{"Global Quote":{"01. symbol":"SPY","05. price":"530.10","07. latest trading day":"2024-06-03"}}`,
	}}

	open := time.Date(2024, 6, 3, 11, 0, 0, 0, ny)
	c := newTestClient(t, api, WithClock(func() time.Time { return open }))
	st, err := c.MarketStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "open", st.MarketStatus)
	assert.Equal(t, "2024-06-03", st.LastUpdated)

	evening := time.Date(2024, 6, 3, 18, 0, 0, 0, ny)
	c = newTestClient(t, api, WithClock(func() time.Time { return evening }))
	st, err = c.MarketStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "closed", st.MarketStatus)
}

func TestSessionOpen(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	saturday := time.Date(2024, 6, 1, 11, 0, 0, 0, ny)
	assert.False(t, sessionOpen(saturday, "2024-06-01"))

	stale := time.Date(2024, 6, 4, 11, 0, 0, 0, ny)
	assert.False(t, sessionOpen(stale, "2024-06-03"))

	opening := time.Date(2024, 6, 4, 9, 30, 0, 0, ny)
	assert.True(t, sessionOpen(opening, "2024-06-04"))
}
