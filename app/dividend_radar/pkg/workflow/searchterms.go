package workflow

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/logger"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
)

// 列表前缀，例如 "- "、"* "、"1. "、"2) "
var listPrefix = regexp.MustCompile(`^(?:[-*•]\s*|\d+[.)]\s+)`)

// generateSearchTerms 生成数据检索关键词，未配置大模型时按偏好拼接
func (e *Engine) generateSearchTerms(ctx context.Context, s State) State {
	if s.Preferences == nil {
		return s.fail("Preferences not loaded")
	}
	p := *s.Preferences

	if !e.llm.Available() {
		s.SearchTerms = fallbackTerms(p)
		return s.next(PhaseScrapeData)
	}

	reply, err := e.llm.Complete(ctx, searchTermsPrompt(p))
	if err != nil {
		logger.Log.WithField("run_id", s.RunID).Errorf("生成检索词失败: %v", err)
		return s.fail(err.Error())
	}

	terms := parseTerms(reply, e.settings.MaxTerms)
	if len(terms) == 0 {
		return s.fail("Failed to generate valid search terms")
	}
	s.SearchTerms = terms
	return s.next(PhaseScrapeData)
}

func fallbackTerms(p model.UserPreferences) []model.SearchTerm {
	return []model.SearchTerm{
		{Query: "high dividend ETFs " + strings.Join(p.Sectors, " "), Source: model.TermSourceFallback},
		{Query: "dividend yield ETFs " + strings.Join(p.Regions, " "), Source: model.TermSourceFallback},
		{Query: fmt.Sprintf("%s%% dividend ETFs", formatNumber(p.YieldMin)), Source: model.TermSourceFallback},
	}
}

func searchTermsPrompt(p model.UserPreferences) string {
	types := make([]string, len(p.InvestmentTypes))
	for i, t := range p.InvestmentTypes {
		types[i] = string(t)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate 3-4 optimized search terms for finding real-time high dividend %s data based on these preferences:\n", strings.Join(types, " and "))
	fmt.Fprintf(&sb, "- Investment Types: %s\n", strings.Join(types, ", "))
	fmt.Fprintf(&sb, "- Sectors: %s\n", strings.Join(p.Sectors, ", "))
	fmt.Fprintf(&sb, "- Regions: %s\n", strings.Join(p.Regions, ", "))
	fmt.Fprintf(&sb, "- Yield Range: %s%% to %s%%\n", formatNumber(p.YieldMin), formatNumber(p.YieldMax))
	if p.MarketCapRange != nil {
		fmt.Fprintf(&sb, "- Market Cap Range: %sB to %sB\n", formatNumber(p.MarketCapRange[0]), formatNumber(p.MarketCapRange[1]))
	}
	if p.PERatioMax != nil {
		fmt.Fprintf(&sb, "- Max P/E Ratio: %s\n", formatNumber(*p.PERatioMax))
	}
	sb.WriteString("\nFocus on terms that work well with financial APIs like Alpha Vantage for real-time market data. ")
	sb.WriteString("Use specific symbols and sector keywords that financial data providers recognize.\n\n")
	sb.WriteString("Format each search term on a new line.")
	return sb.String()
}

// parseTerms 每行一个检索词，去掉列表前缀和引号
func parseTerms(reply string, limit int) []model.SearchTerm {
	var terms []model.SearchTerm
	seen := make(map[string]bool)
	for _, line := range strings.Split(reply, "\n") {
		q := strings.TrimSpace(line)
		q = listPrefix.ReplaceAllString(q, "")
		q = strings.TrimSpace(strings.Trim(q, `"'`))
		if q == "" || seen[strings.ToLower(q)] {
			continue
		}
		seen[strings.ToLower(q)] = true
		terms = append(terms, model.SearchTerm{Query: q, Source: model.TermSourceLLM})
		if limit > 0 && len(terms) == limit {
			break
		}
	}
	return terms
}

// formatNumber 整数不带小数位，与 JSON 数字的显示一致
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
