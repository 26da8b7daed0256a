package workflow

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
)

const defaultReportTitle = "Real-Time Dividend Investment Analysis"

// 无结果时的固定说明
const noMatchesNarrative = "🔍 **No Investments Found Matching Your Criteria**\n\n" +
	"We searched our financial data sources but couldn't find investments that match your specific requirements. This could be due to:\n\n" +
	"• **Very specific criteria**: Your yield range or sector/region combination might be too narrow\n" +
	"• **Market conditions**: Current market yields may not align with your target range\n" +
	"• **Data source limitations**: Some sources may be temporarily unavailable\n\n" +
	"💡 **Suggestions to Find More Options:**\n" +
	"• **Broaden yield range**: Try 1-10% instead of a narrow range\n" +
	"• **Expand sectors**: Include 'All' sectors or add more sector options\n" +
	"• **Include both ETFs and stocks**: Select both investment types\n" +
	"• **Include global markets**: Add 'Global' or 'International' regions\n" +
	"• **Try again**: Market data refreshes regularly\n\n" +
	"🎯 **Popular Dividend Investment Ranges:**\n" +
	"• High-yield dividend investments: 3-6% yield\n" +
	"• Balanced dividend investments: 2-4% yield\n" +
	"• Growth + dividend investments: 1-3% yield"

// pickStats 由 topPicks 计算的统计
type pickStats struct {
	etfs, stocks int
	sectors      []string
	regions      []string
	yields       []float64
	average      float64
	quality      model.DataQuality
}

func computeStats(picks []model.InvestmentRecord) pickStats {
	var st pickStats
	st.etfs, st.stocks = countTypes(picks)
	st.sectors = distinctNonEmpty(picks, func(r model.InvestmentRecord) string { return r.Sector })
	st.regions = distinctNonEmpty(picks, func(r model.InvestmentRecord) string { return r.Region })
	for _, r := range picks {
		if !math.IsNaN(r.DividendYield) {
			st.yields = append(st.yields, r.DividendYield)
		}
	}
	if len(st.yields) > 0 {
		var sum float64
		for _, y := range st.yields {
			sum += y
		}
		st.average = sum / float64(len(st.yields))
	}
	switch {
	case len(picks) >= 5:
		st.quality = model.QualityHigh
	case len(picks) >= 2:
		st.quality = model.QualityMedium
	default:
		st.quality = model.QualityLow
	}
	return st
}

// formatReport 生成最终报告
func (e *Engine) formatReport(_ context.Context, s State) State {
	if s.Summary == nil {
		return s.fail("No summary to format")
	}
	picks := s.Summary.TopPicks
	if picks == nil {
		picks = []model.InvestmentRecord{}
	}
	st := computeStats(picks)

	var narrative string
	if len(picks) == 0 {
		narrative = noMatchesNarrative
		if detail := strings.TrimSpace(s.Summary.Summary); detail != "" {
			narrative += "\n\nℹ️ **Details:** " + detail
		}
	} else {
		narrative = populatedNarrative(picks, st)
		if notes := strings.TrimSpace(s.Summary.Summary); notes != "" {
			narrative += "\n\n📝 **Analyst Notes:**\n\n" + notes
		}
	}

	topSectors := st.sectors
	if len(topSectors) > 3 {
		topSectors = topSectors[:3]
	}
	if topSectors == nil {
		topSectors = []string{}
	}
	etfs, stocks := countTypes(s.ScrapedData)

	title := s.Summary.Title
	if title == "" {
		title = defaultReportTitle
	}
	s.Report = &model.SummaryReport{
		Title:     title,
		Summary:   narrative,
		TopPicks:  picks,
		Timestamp: e.now(),
		Metadata: &model.ReportMetadata{
			TotalAnalyzed: len(s.ScrapedData),
			AverageYield:  math.Round(st.average*100) / 100,
			TopSectors:    topSectors,
			DataQuality:   st.quality,
			ETFCount:      etfs,
			StockCount:    stocks,
		},
	}
	return s.next(PhaseComplete)
}

func populatedNarrative(picks []model.InvestmentRecord, st pickStats) string {
	var sb strings.Builder
	sb.WriteString("📊 **Real-Time Market Analysis Complete!**\n\n")
	fmt.Fprintf(&sb, "Our AI found %s from live market data that match your criteria", plural(len(picks), "dividend investment"))
	switch {
	case st.etfs > 0 && st.stocks > 0:
		fmt.Fprintf(&sb, " (%s and %s)", plural(st.etfs, "ETF"), plural(st.stocks, "stock"))
	case st.etfs > 0:
		sb.WriteString(" (all ETFs)")
	case st.stocks > 0:
		sb.WriteString(" (all stocks)")
	}

	best := picks[0]
	name := best.Name
	if name == "" {
		name = "N/A"
	}
	symbol := ""
	if best.Symbol != "" {
		symbol = fmt.Sprintf(" (%s)", best.Symbol)
	}
	article := "a stock"
	if best.Type == model.TypeETF {
		article = "an ETF"
	}
	bestYield := "N/A"
	if !math.IsNaN(best.DividendYield) {
		bestYield = fmt.Sprintf("%.2f", best.DividendYield)
	}
	fmt.Fprintf(&sb, ". The top performer is **%s**%s, %s with a current yield of **%s%%**. ", name, symbol, article, bestYield)

	if len(st.yields) > 1 {
		lo, hi := st.yields[0], st.yields[0]
		for _, y := range st.yields[1:] {
			lo = math.Min(lo, y)
			hi = math.Max(hi, y)
		}
		fmt.Fprintf(&sb, "\n\n💰 **Yield Analysis:** Your picks have an average yield of %.2f%%, ranging from %.2f%% to %.2f%%. ", st.average, lo, hi)
	}

	switch {
	case len(st.sectors) > 1:
		fmt.Fprintf(&sb, "\n\n🏭 **Sector Diversification:** Your portfolio spans %s sectors. ", joinAnd(st.sectors))
	case len(st.sectors) == 1:
		fmt.Fprintf(&sb, "\n\n🏭 **Sector Focus:** All picks are concentrated in the %s sector. ", st.sectors[0])
	}

	switch {
	case len(st.regions) > 1:
		fmt.Fprintf(&sb, "\n\n🌍 **Geographic Coverage:** These ETFs provide exposure to %s markets. ", joinAnd(st.regions))
	case len(st.regions) == 1:
		fmt.Fprintf(&sb, "\n\n🌍 **Regional Focus:** All selections target the %s market. ", st.regions[0])
	}

	mix := "Individual stocks offer targeted exposure to specific companies."
	switch {
	case st.etfs > 0 && st.stocks > 0:
		mix = "The mix of ETFs and individual stocks provides both diversification and targeted exposure."
	case st.etfs > 0:
		mix = "ETFs provide instant diversification across multiple holdings."
	}
	fmt.Fprintf(&sb, "\n\n✅ **Investment Benefits:** Each investment was selected based on real-time market data to help you generate consistent dividend income while maintaining portfolio diversification. %s ", mix)

	if st.quality == model.QualityLow {
		sb.WriteString("\n\n⚠️ **Limited Results:** We found fewer options than usual. Consider broadening your search criteria for more real-time opportunities. ")
	}

	sb.WriteString("\n\n🔄 **Live Data:** All information is sourced from current market data. For different results, adjust your preferences above and we'll scan the markets again!")
	return sb.String()
}

func plural(n int, noun string) string {
	if n > 1 {
		return fmt.Sprintf("%d %ss", n, noun)
	}
	return fmt.Sprintf("%d %s", n, noun)
}

// joinAnd 组成 "a and b" 或 "a, b, and c"
func joinAnd(items []string) string {
	head := strings.Join(items[:len(items)-1], ", ")
	if len(items) > 2 {
		head += ","
	}
	return head + " and " + items[len(items)-1]
}

func distinctNonEmpty(recs []model.InvestmentRecord, field func(model.InvestmentRecord) string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range recs {
		v := field(r)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
