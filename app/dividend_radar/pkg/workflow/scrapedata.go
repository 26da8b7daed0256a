package workflow

import (
	"context"
	"strings"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/logger"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/scrape"
)

const msgNoData = "No ETF data found matching your criteria. This could be due to very specific search terms or temporary data source issues."

// scrapeData 依次用每个检索词获取数据，合并去重；没有结果时直接进入报告
func (e *Engine) scrapeData(ctx context.Context, s State) State {
	if len(s.SearchTerms) == 0 || s.Preferences == nil {
		return s.fail("Missing search terms or preferences")
	}
	if e.scraper == nil {
		return s.fail("No market data sources configured")
	}
	log := logger.Log.WithField("run_id", s.RunID)

	var all []model.InvestmentRecord
	var errs []string
	for _, term := range s.SearchTerms {
		if err := ctx.Err(); err != nil {
			errs = append(errs, "Scraping cancelled: "+err.Error())
			break
		}
		res := e.scraper.Run(ctx, term.Query, *s.Preferences)
		log.Debugf("检索词 [%s] 返回 %d 条", term.Query, len(res.Records))
		all = append(all, res.Records...)
		errs = append(errs, res.Errors...)
	}
	s.ScrapeErrors = distinct(errs)

	unique := scrape.DedupBySymbol(all)
	if len(unique) == 0 {
		msg := msgNoData
		if len(s.ScrapeErrors) > 0 {
			msg = "No ETF data found. Encountered errors: " + strings.Join(s.ScrapeErrors, "; ")
		}
		log.Warnf("未获取到符合条件的数据")
		s.ScrapedData = []model.InvestmentRecord{}
		s.Summary = &model.SummaryReport{
			Summary:   msg,
			TopPicks:  []model.InvestmentRecord{},
			Timestamp: e.now(),
			Metadata: &model.ReportMetadata{
				TopSectors:  []string{},
				DataQuality: model.QualityLow,
			},
		}
		return s.next(PhaseFormatReport)
	}

	log.Infof("共获取 %d 个标的", len(unique))
	s.ScrapedData = unique
	return s.next(PhaseSummarizeData)
}

func distinct(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
