package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/scrape"
)

func terms(queries ...string) []model.SearchTerm {
	out := make([]model.SearchTerm, len(queries))
	for i, q := range queries {
		out[i] = model.SearchTerm{Query: q, Source: model.TermSourceFallback}
	}
	return out
}

func TestScrapeData_MergesAndDedupsAcrossTerms(t *testing.T) {
	sc := &stubScraper{byQuery: map[string]scrape.Result{
		"a": {Records: []model.InvestmentRecord{
			rec("SPHD", "Technology", "USA", 4.25, model.TypeETF),
			rec("IBM", "Technology", "USA", 3.72, model.TypeStock),
		}},
		"b": {Records: []model.InvestmentRecord{
			rec("IBM", "Technology", "USA", 9.99, model.TypeStock),
			rec("TXN", "Technology", "USA", 2.81, model.TypeStock),
		}, Errors: []string{"Error fetching data from x: down"}},
		"c": {Errors: []string{"Error fetching data from x: down"}},
	}}
	e := newTestEngine(nil, sc)

	got := e.scrapeData(context.Background(), State{SearchTerms: terms("a", "b", "c"), Preferences: techPrefs()})
	require.Equal(t, PhaseSummarizeData, got.Status)
	assert.Equal(t, []string{"a", "b", "c"}, sc.queries)

	var symbols []string
	for _, r := range got.ScrapedData {
		symbols = append(symbols, r.Symbol)
	}
	assert.Equal(t, []string{"SPHD", "IBM", "TXN"}, symbols)
	assert.Equal(t, 3.72, got.ScrapedData[1].DividendYield)
	assert.Equal(t, []string{"Error fetching data from x: down"}, got.ScrapeErrors)
}

func TestScrapeData_EmptyResultsSkipToReport(t *testing.T) {
	e := newTestEngine(nil, &stubScraper{})

	got := e.scrapeData(context.Background(), State{SearchTerms: terms("a"), Preferences: techPrefs()})
	require.Equal(t, PhaseFormatReport, got.Status)
	assert.Empty(t, got.Error)
	assert.NotNil(t, got.ScrapedData)
	assert.Empty(t, got.ScrapedData)
	require.NotNil(t, got.Summary)
	assert.Equal(t, msgNoData, got.Summary.Summary)
	assert.Empty(t, got.Summary.TopPicks)
	assert.Equal(t, model.QualityLow, got.Summary.Metadata.DataQuality)
	assert.Zero(t, got.Summary.Metadata.TotalAnalyzed)
}

func TestScrapeData_EmptyResultsReportErrors(t *testing.T) {
	sc := &stubScraper{other: scrape.Result{Errors: []string{"Error fetching data from a: x", "Error fetching data from b: y"}}}
	e := newTestEngine(nil, sc)

	got := e.scrapeData(context.Background(), State{SearchTerms: terms("q1", "q2"), Preferences: techPrefs()})
	require.Equal(t, PhaseFormatReport, got.Status)
	assert.Equal(t, "No ETF data found. Encountered errors: Error fetching data from a: x; Error fetching data from b: y", got.Summary.Summary)
}

func TestScrapeData_MissingInputs(t *testing.T) {
	e := newTestEngine(nil, &stubScraper{})

	got := e.scrapeData(context.Background(), State{Preferences: techPrefs()})
	assert.Equal(t, PhaseError, got.Status)
	assert.Equal(t, "Missing search terms or preferences", got.Error)

	got = e.scrapeData(context.Background(), State{SearchTerms: terms("a")})
	assert.Equal(t, PhaseError, got.Status)
}

func TestScrapeData_StopsWhenCancelled(t *testing.T) {
	sc := &stubScraper{}
	e := newTestEngine(nil, sc)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := e.scrapeData(ctx, State{SearchTerms: terms("a", "b"), Preferences: techPrefs()})
	assert.Empty(t, sc.queries)
	assert.Equal(t, PhaseFormatReport, got.Status)
	assert.Contains(t, got.Summary.Summary, "Scraping cancelled")
}
