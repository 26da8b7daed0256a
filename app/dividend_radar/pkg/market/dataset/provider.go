// Package dataset 提供内置的参考数据集，作为无需凭据即可使用的数据源。
package dataset

import (
	"context"
	"time"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/market"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
)

const providerName = "FinancialDataset (Reference)"

type entry struct {
	symbol        string
	name          string
	typ           model.InvestmentType
	yield         float64
	sector        string
	region        string
	price         float64
	marketCap     float64
	peRatio       float64
	expenseRatio  float64
	inceptionDate string
	description   string
}

var entries = []entry{
	{"SCHD", "Schwab US Dividend Equity ETF", model.TypeETF, 3.45, "Finance", "USA", 78.5, 52e9, 0, 0.06, "2011-10-20",
		"Tracks an index of US stocks with a record of consistently paying dividends"},
	{"VYM", "Vanguard High Dividend Yield ETF", model.TypeETF, 2.85, "Finance", "USA", 115.2, 58e9, 0, 0.06, "2006-11-10",
		"Seeks to track the performance of the FTSE High Dividend Yield Index"},
	{"HDV", "iShares Core High Dividend ETF", model.TypeETF, 3.12, "Finance", "USA", 108.75, 8.5e9, 0, 0.08, "2011-03-29",
		"Seeks to track the investment results of an index composed of high dividend paying US equities"},
	{"SPHD", "Invesco S&P 500 High Dividend Low Volatility ETF", model.TypeETF, 4.25, "Technology", "USA", 45.3, 2.8e9, 0, 0.30, "2012-10-18",
		"Seeks to track the investment results of the S&P 500 Low Volatility High Dividend Index"},
	{"SPYD", "SPDR Portfolio S&P 500 High Dividend ETF", model.TypeETF, 3.89, "Technology", "USA", 42.15, 6.2e9, 0, 0.07, "2015-10-21",
		"Seeks to provide investment results that correspond to the price and yield performance of the S&P 500 High Dividend Index"},
	{"VXUS", "Vanguard Total International Stock ETF", model.TypeETF, 2.45, "Finance", "Global", 65.8, 45e9, 0, 0.08, "2011-01-26",
		"Seeks to track the performance of the FTSE Global All Cap ex US Index"},
	{"JNJ", "Johnson & Johnson", model.TypeStock, 3.05, "Healthcare", "USA", 156.2, 376e9, 15.4, 0, "",
		"Diversified healthcare company with more than six decades of consecutive dividend increases"},
	{"KO", "The Coca-Cola Company", model.TypeStock, 3.02, "Consumer Staples", "USA", 61.4, 265e9, 24.1, 0, "",
		"Global beverage company and long-standing Dividend King"},
	{"XOM", "Exxon Mobil Corporation", model.TypeStock, 3.35, "Energy", "USA", 112.8, 448e9, 13.2, 0, "",
		"Integrated oil and gas producer with a long record of dividend growth"},
	{"VZ", "Verizon Communications Inc.", model.TypeStock, 6.45, "Communication Services", "USA", 40.6, 171e9, 8.7, 0, "",
		"US telecommunications carrier with a high current dividend yield"},
	{"IBM", "International Business Machines", model.TypeStock, 3.72, "Technology", "USA", 178.9, 165e9, 20.3, 0, "",
		"Enterprise technology and consulting company paying dividends since 1916"},
	{"TXN", "Texas Instruments Incorporated", model.TypeStock, 2.81, "Technology", "USA", 193.4, 176e9, 31.5, 0, "",
		"Analog and embedded semiconductor maker with consistent dividend growth"},
}

// Provider 参考数据集，结果稳定可复现
type Provider struct {
	now func() time.Time
}

// New 创建参考数据集数据源
func New() *Provider {
	return &Provider{now: time.Now}
}

var _ market.Provider = (*Provider)(nil)

// Name implements market.Provider
func (p *Provider) Name() string { return providerName }

// Fetch implements market.Provider，按偏好品种返回全部参考数据
func (p *Provider) Fetch(_ context.Context, _ string, prefs model.UserPreferences) ([]model.InvestmentRecord, error) {
	now := p.now()
	var out []model.InvestmentRecord
	for _, e := range entries {
		if len(prefs.InvestmentTypes) > 0 && !prefs.Wants(e.typ) {
			continue
		}
		out = append(out, e.record(now))
	}
	return out, nil
}

func (e entry) record(now time.Time) model.InvestmentRecord {
	rec := model.InvestmentRecord{
		Symbol:        e.symbol,
		Name:          e.name,
		DividendYield: e.yield,
		Sector:        e.sector,
		Type:          e.typ,
		Price:         model.Float(e.price),
		MarketCap:     model.Float(e.marketCap),
		Region:        e.region,
		InceptionDate: e.inceptionDate,
		Description:   e.description,
		Source:        providerName,
		Timestamp:     now,
	}
	if e.peRatio > 0 {
		rec.PERatio = model.Float(e.peRatio)
	}
	if e.typ == model.TypeETF {
		rec.ExpenseRatio = model.Float(e.expenseRatio)
		rec.AUM = model.Float(e.marketCap)
	}
	return rec
}
