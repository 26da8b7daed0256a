package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
)

func rec(symbol, sector, region string, yield float64, typ model.InvestmentType) model.InvestmentRecord {
	return model.InvestmentRecord{Symbol: symbol, Sector: sector, Region: region, DividendYield: yield, Type: typ}
}

func basePrefs() model.UserPreferences {
	return model.UserPreferences{
		Sectors:         []string{"technology"},
		Regions:         []string{"usa"},
		YieldMin:        2,
		YieldMax:        8,
		InvestmentTypes: model.AllInvestmentTypes,
	}
}

func TestMatcher_Sector(t *testing.T) {
	m := NewMatcher(DefaultFilterOptions())
	prefs := basePrefs()

	tests := []struct {
		sector string
		want   bool
	}{
		{"Technology", true},
		{"Information Technology", true},
		{"TECH", true},
		{"Software & Services", true},
		{"Finance", false},
		{"Energy", false},
	}
	for _, tt := range tests {
		t.Run(tt.sector, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Match(rec("X", tt.sector, "USA", 3, model.TypeETF), prefs))
		})
	}

	prefs.Sectors = []string{"finance"}
	assert.True(t, m.Match(rec("X", "Financial Services", "USA", 3, model.TypeETF), prefs))
	assert.True(t, m.Match(rec("X", "Regional Banks", "USA", 3, model.TypeETF), prefs))

	prefs.Sectors = []string{"All"}
	assert.True(t, m.Match(rec("X", "Energy", "USA", 3, model.TypeETF), prefs))

	prefs.Sectors = nil
	assert.True(t, m.Match(rec("X", "Energy", "USA", 3, model.TypeETF), prefs))
}

func TestMatcher_Region(t *testing.T) {
	m := NewMatcher(DefaultFilterOptions())
	prefs := basePrefs()

	assert.True(t, m.Match(rec("X", "Technology", "United States", 3, model.TypeETF), prefs))
	assert.True(t, m.Match(rec("X", "Technology", "", 3, model.TypeETF), prefs), "missing region defaults to usa")
	assert.False(t, m.Match(rec("X", "Technology", "Japan", 3, model.TypeETF), prefs))

	prefs.Regions = []string{"europe"}
	assert.True(t, m.Match(rec("X", "Technology", "Developed Europe", 3, model.TypeETF), prefs))
	assert.False(t, m.Match(rec("X", "Technology", "USA", 3, model.TypeETF), prefs))

	prefs.Regions = []string{"global", "europe"}
	assert.True(t, m.Match(rec("X", "Technology", "Japan", 3, model.TypeETF), prefs))
}

func TestMatcher_YieldWindow(t *testing.T) {
	m := NewMatcher(DefaultFilterOptions())
	prefs := basePrefs()

	assert.True(t, m.Match(rec("X", "Technology", "USA", 0.5, model.TypeETF), prefs))
	assert.False(t, m.Match(rec("X", "Technology", "USA", 0.49, model.TypeETF), prefs))
	assert.True(t, m.Match(rec("X", "Technology", "USA", 11.0, model.TypeETF), prefs))
	assert.False(t, m.Match(rec("X", "Technology", "USA", 11.01, model.TypeETF), prefs))

	prefs.YieldMin = 0.5
	assert.True(t, m.Match(rec("X", "Technology", "USA", 0, model.TypeETF), prefs), "lower bound clamps at zero")
}

func TestMatcher_CustomTolerance(t *testing.T) {
	opts := DefaultFilterOptions()
	opts.YieldToleranceLow, opts.YieldToleranceHigh = 0, 0
	m := NewMatcher(opts)

	assert.False(t, m.Match(rec("X", "Technology", "USA", 1.9, model.TypeETF), basePrefs()))
	assert.False(t, m.Match(rec("X", "Technology", "USA", 8.1, model.TypeETF), basePrefs()))
}

func TestMatcher_Type(t *testing.T) {
	m := NewMatcher(DefaultFilterOptions())
	prefs := basePrefs()
	prefs.InvestmentTypes = []model.InvestmentType{model.TypeETF}

	assert.True(t, m.Match(rec("X", "Technology", "USA", 3, model.TypeETF), prefs))
	assert.False(t, m.Match(rec("X", "Technology", "USA", 3, model.TypeStock), prefs))
}

func TestMatcher_StockFundamentals(t *testing.T) {
	m := NewMatcher(DefaultFilterOptions())
	prefs := basePrefs()
	prefs.MarketCapRange = &[2]float64{10, 200}
	prefs.PERatioMax = model.Float(25)

	ok := rec("IBM", "Technology", "USA", 3.7, model.TypeStock)
	ok.MarketCap = model.Float(165e9)
	ok.PERatio = model.Float(20.3)
	assert.True(t, m.Match(ok, prefs))

	tooBig := ok
	tooBig.MarketCap = model.Float(3000e9)
	assert.False(t, m.Match(tooBig, prefs))

	expensive := ok
	expensive.PERatio = model.Float(31.5)
	assert.False(t, m.Match(expensive, prefs))

	unknown := rec("ZZZ", "Technology", "USA", 3.7, model.TypeStock)
	assert.True(t, m.Match(unknown, prefs), "missing fields are not constrained")

	etf := rec("SPYD", "Technology", "USA", 3.9, model.TypeETF)
	etf.MarketCap = model.Float(6.2e9)
	assert.True(t, m.Match(etf, prefs), "etfs ignore stock constraints")
}

func TestDedupBySymbol_KeepsFirst(t *testing.T) {
	in := []model.InvestmentRecord{
		{Symbol: "SCHD", Source: "a"},
		{Symbol: "VYM", Source: "a"},
		{Symbol: "schd", Source: "b"},
		{Symbol: "HDV", Source: "b"},
		{Symbol: "VYM", Source: "c"},
	}
	out := DedupBySymbol(in)
	assert.Len(t, out, 3)
	assert.Equal(t, "a", out[0].Source)
	assert.Equal(t, "a", out[1].Source)
	assert.Equal(t, "HDV", out[2].Symbol)
}
