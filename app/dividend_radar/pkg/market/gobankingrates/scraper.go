// Package gobankingrates 从 GoBankingRates 的高股息 ETF 榜单页面抓取数据，作为最后的兜底数据源。
package gobankingrates

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/logger"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/market"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
)

const (
	providerName = "GoBankingRates"
	defaultURL   = "https://www.gobankingrates.com/investing/funds/best-high-dividend-etf/"
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// errRetryable 服务端错误或网络错误，可以重试
var errRetryable = errors.New("retryable")

// Scraper 榜单页面抓取器
type Scraper struct {
	url       string
	client    *http.Client
	attempts  int
	baseDelay time.Duration
	now       func() time.Time
}

// NewScraper 创建抓取器，pageURL 为空时使用默认页面
func NewScraper(pageURL string, timeout time.Duration) *Scraper {
	if pageURL == "" {
		pageURL = defaultURL
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Scraper{
		url:       pageURL,
		client:    &http.Client{Timeout: timeout},
		attempts:  3,
		baseDelay: time.Second,
		now:       time.Now,
	}
}

var _ market.Provider = (*Scraper)(nil)

// Name implements market.Provider
func (s *Scraper) Name() string { return providerName }

// Fetch implements market.Provider
func (s *Scraper) Fetch(ctx context.Context, _ string, prefs model.UserPreferences) ([]model.InvestmentRecord, error) {
	if len(prefs.InvestmentTypes) > 0 && !prefs.Wants(model.TypeETF) {
		return nil, nil
	}

	var doc *goquery.Document
	var err error
	for i := 0; i < s.attempts; i++ {
		doc, err = s.fetchDocument(ctx)
		if err == nil || !errors.Is(err, errRetryable) {
			break
		}
		if i < s.attempts-1 {
			delay := s.baseDelay * time.Duration(i+1)
			logger.Log.Warnf("GoBankingRates 抓取失败，%s 后重试 (%d/%d): %v", delay, i+1, s.attempts-1, err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	if err != nil {
		return nil, err
	}

	results := s.extract(doc)
	logger.Log.Infof("GoBankingRates: 解析到 %d 只 ETF", len(results))
	return results, nil
}

func (s *Scraper) fetchDocument(ctx context.Context) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: request document: %v", errRetryable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: gobankingrates returned %s", errRetryable, resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gobankingrates returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// extract 解析 table tbody tr：名称、代码、股息率、行业、地区
func (s *Scraper) extract(doc *goquery.Document) []model.InvestmentRecord {
	now := s.now()
	var results []model.InvestmentRecord
	doc.Find("table tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		cell := func(n int) string {
			return strings.TrimSpace(cells.Eq(n).Text())
		}

		title := cell(0)
		ticker := strings.ToUpper(cell(1))
		yield, err := strconv.ParseFloat(strings.NewReplacer("%", "", ",", "").Replace(cell(2)), 64)
		if title == "" || ticker == "" || err != nil || yield <= 0 {
			return
		}

		sector := cell(3)
		if sector == "" {
			sector = "Unknown"
		}
		name := title
		if !strings.Contains(title, ticker) {
			name = fmt.Sprintf("%s (%s)", title, ticker)
		}

		results = append(results, model.InvestmentRecord{
			Symbol:        ticker,
			Name:          name,
			DividendYield: yield,
			Sector:        sector,
			Type:          model.TypeETF,
			Region:        cell(4),
			Source:        providerName,
			Timestamp:     now,
		})
	})
	return results
}
