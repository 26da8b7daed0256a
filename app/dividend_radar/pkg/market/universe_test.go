package market

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
)

func TestFallbackYield(t *testing.T) {
	assert.Equal(t, 3.4, FallbackYield("SCHD"))
	assert.Equal(t, 4.2, FallbackYield("sphd"))
	assert.Equal(t, defaultYield, FallbackYield("ZZZZ"))
}

func TestUniverse_ETFOnly(t *testing.T) {
	got := Universe("high dividend ETFs technology", []model.InvestmentType{model.TypeETF})
	assert.Equal(t, PopularETFs, got)
}

func TestUniverse_Interleaves(t *testing.T) {
	got := Universe("", model.AllInvestmentTypes)
	assert.Equal(t, []string{"VYM", "JNJ", "SCHD", "KO"}, got[:4])
	assert.Len(t, got, len(PopularETFs)+len(PopularStocks))
}

func TestUniverse_MentionedSymbolsFirst(t *testing.T) {
	got := Universe("Compare $SPYD and NOBL yields", []model.InvestmentType{model.TypeETF})
	assert.Equal(t, []string{"NOBL", "SPYD"}, got[:2])
	assert.Len(t, got, len(PopularETFs))
}

func TestUniverse_SingleLetterNotPromoted(t *testing.T) {
	got := Universe("is T a good pick", []model.InvestmentType{model.TypeStock})
	assert.Equal(t, "JNJ", got[0])
}

func TestProfileOf(t *testing.T) {
	p, ok := ProfileOf("xom")
	assert.True(t, ok)
	assert.Equal(t, Profile{Sector: "Energy", Region: "USA"}, p)

	_, ok = ProfileOf("ZZZZ")
	assert.False(t, ok)
}

func TestIsETF(t *testing.T) {
	assert.True(t, IsETF("schd"))
	assert.False(t, IsETF("KO"))
}

func TestIsKnown(t *testing.T) {
	assert.True(t, IsKnown("vym"))
	assert.True(t, IsKnown("O"))
	assert.False(t, IsKnown("AAPL"))
}
