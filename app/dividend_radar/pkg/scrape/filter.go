package scrape

import (
	"strings"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/config"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
)

// FilterOptions 偏好匹配的可调参数
type FilterOptions struct {
	// 股息率窗口为 [max(0, min-YieldToleranceLow), max+YieldToleranceHigh]
	YieldToleranceLow  float64
	YieldToleranceHigh float64
	// 偏好关键词 -> 视为匹配的标的字段子串
	SectorSynonyms map[string][]string
	RegionSynonyms map[string][]string
}

// DefaultFilterOptions 默认容差与同义词表
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		YieldToleranceLow:  1.5,
		YieldToleranceHigh: 3.0,
		SectorSynonyms: map[string][]string{
			"technology": {"tech", "information", "software"},
			"finance":    {"financial", "bank", "insurance"},
			"healthcare": {"health"},
			"energy":     {"energy"},
			"utilities":  {"utilities"},
		},
		RegionSynonyms: map[string][]string{
			"usa":    {"us", "america", "united states"},
			"global": {"international", "world", "emerging"},
			"europe": {"europe"},
			"asia":   {"asia"},
		},
	}
}

// FilterOptionsFromConfig 使用配置中的容差覆盖默认值
func FilterOptionsFromConfig(cfg config.FilterConfig) FilterOptions {
	opts := DefaultFilterOptions()
	opts.YieldToleranceLow = cfg.YieldToleranceLow
	opts.YieldToleranceHigh = cfg.YieldToleranceHigh
	return opts
}

// Matcher 以宽松规则判断标的是否符合偏好，避免实时数据稀疏时过度裁剪
type Matcher struct {
	opts FilterOptions
}

// NewMatcher 创建匹配器
func NewMatcher(opts FilterOptions) *Matcher {
	return &Matcher{opts: opts}
}

// Filter 返回符合偏好的标的，保持原有顺序
func (m *Matcher) Filter(recs []model.InvestmentRecord, prefs model.UserPreferences) []model.InvestmentRecord {
	var out []model.InvestmentRecord
	for _, r := range recs {
		if m.Match(r, prefs) {
			out = append(out, r)
		}
	}
	return out
}

// Match 单个标的是否符合偏好
func (m *Matcher) Match(r model.InvestmentRecord, prefs model.UserPreferences) bool {
	return m.matchType(r, prefs) &&
		m.matchSector(r, prefs) &&
		m.matchRegion(r, prefs) &&
		m.matchYield(r, prefs) &&
		matchFundamentals(r, prefs)
}

func (m *Matcher) matchType(r model.InvestmentRecord, prefs model.UserPreferences) bool {
	return len(prefs.InvestmentTypes) == 0 || prefs.Wants(r.Type)
}

func (m *Matcher) matchSector(r model.InvestmentRecord, prefs model.UserPreferences) bool {
	wanted := normalize(prefs.Sectors)
	if len(wanted) == 0 || contains(wanted, "all") {
		return true
	}
	return fuzzyAny(wanted, strings.ToLower(r.Sector), m.opts.SectorSynonyms)
}

func (m *Matcher) matchRegion(r model.InvestmentRecord, prefs model.UserPreferences) bool {
	wanted := normalize(prefs.Regions)
	if len(wanted) == 0 || contains(wanted, "all") || contains(wanted, "global") {
		return true
	}
	region := strings.ToLower(r.Region)
	if region == "" {
		region = "usa"
	}
	return fuzzyAny(wanted, region, m.opts.RegionSynonyms)
}

func (m *Matcher) matchYield(r model.InvestmentRecord, prefs model.UserPreferences) bool {
	low := prefs.YieldMin - m.opts.YieldToleranceLow
	if low < 0 {
		low = 0
	}
	high := prefs.YieldMax + m.opts.YieldToleranceHigh
	return r.DividendYield >= low && r.DividendYield <= high
}

// matchFundamentals 市值与市盈率约束只作用于个股，且字段缺失时不做限制
func matchFundamentals(r model.InvestmentRecord, prefs model.UserPreferences) bool {
	if r.Type != model.TypeStock {
		return true
	}
	if prefs.MarketCapRange != nil && r.MarketCap != nil {
		lo, hi := prefs.MarketCapRange[0]*1e9, prefs.MarketCapRange[1]*1e9
		if *r.MarketCap < lo || *r.MarketCap > hi {
			return false
		}
	}
	if prefs.PERatioMax != nil && r.PERatio != nil && *r.PERatio > *prefs.PERatioMax {
		return false
	}
	return true
}

// fuzzyAny 任一偏好与字段互为子串，或字段包含该偏好的同义词
func fuzzyAny(wanted []string, field string, synonyms map[string][]string) bool {
	for _, w := range wanted {
		if strings.Contains(field, w) || strings.Contains(w, field) {
			return true
		}
		for _, syn := range synonyms[w] {
			if strings.Contains(field, syn) {
				return true
			}
		}
	}
	return false
}

func normalize(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// DedupBySymbol 按代码去重，保留首次出现的记录
func DedupBySymbol(recs []model.InvestmentRecord) []model.InvestmentRecord {
	seen := make(map[string]bool, len(recs))
	out := make([]model.InvestmentRecord, 0, len(recs))
	for _, r := range recs {
		key := strings.ToUpper(strings.TrimSpace(r.Symbol))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}
