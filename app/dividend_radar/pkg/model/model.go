package model

import (
	"strings"
	"time"
)

// InvestmentType 投资品种
type InvestmentType string

const (
	TypeETF   InvestmentType = "ETF"
	TypeStock InvestmentType = "STOCK"
)

// AllInvestmentTypes 未指定时的默认品种
var AllInvestmentTypes = []InvestmentType{TypeETF, TypeStock}

// ParseInvestmentType 大小写不敏感地解析品种，未知品种返回 false
func ParseInvestmentType(s string) (InvestmentType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ETF", "ETFS":
		return TypeETF, true
	case "STOCK", "STOCKS":
		return TypeStock, true
	}
	return "", false
}

// InputType 输入分类
type InputType string

const (
	InputResearch InputType = "research"
	InputGeneral  InputType = "general"
)

// ResearchRequest 结构化的研究请求
type ResearchRequest struct {
	Sectors         []string         `json:"sectors"`
	Regions         []string         `json:"regions"`
	YieldRange      []float64        `json:"yieldRange"`
	InvestmentTypes []InvestmentType `json:"investmentTypes,omitempty"`
	MarketCapRange  []float64        `json:"marketCapRange,omitempty"` // 单位：十亿
	PERatioMax      *float64         `json:"peRatioMax,omitempty"`
	Timestamp       string           `json:"timestamp,omitempty"`
}

// UserPreferences 用户投资偏好，由 load_preferences 节点创建后不再修改
type UserPreferences struct {
	Sectors         []string         `json:"sectors"`
	Regions         []string         `json:"regions"`
	YieldMin        float64          `json:"yieldMin"`
	YieldMax        float64          `json:"yieldMax"`
	InvestmentTypes []InvestmentType `json:"investmentTypes"`
	MarketCapRange  *[2]float64      `json:"marketCapRange,omitempty"` // 单位：十亿
	PERatioMax      *float64         `json:"peRatioMax,omitempty"`
}

// Wants 是否包含指定品种
func (p UserPreferences) Wants(t InvestmentType) bool {
	for _, it := range p.InvestmentTypes {
		if it == t {
			return true
		}
	}
	return false
}

// SearchTerm 数据检索关键词
type SearchTerm struct {
	Query  string `json:"query"`
	Source string `json:"source"` // "llm" 或 "fallback"
}

const (
	TermSourceLLM      = "llm"
	TermSourceFallback = "fallback"
)

// InvestmentRecord 单个投资标的，创建后只会被过滤或丢弃
type InvestmentRecord struct {
	Symbol        string         `json:"symbol"`
	Name          string         `json:"name"`
	DividendYield float64        `json:"dividendYield"` // 百分比
	Sector        string         `json:"sector"`
	Type          InvestmentType `json:"type"`
	Price         *float64       `json:"price,omitempty"`
	MarketCap     *float64       `json:"marketCap,omitempty"`
	PERatio       *float64       `json:"peRatio,omitempty"`
	EPS           *float64       `json:"eps,omitempty"`
	Beta          *float64       `json:"beta,omitempty"`
	Region        string         `json:"region,omitempty"`
	ExpenseRatio  *float64       `json:"expenseRatio,omitempty"`
	AUM           *float64       `json:"aum,omitempty"`
	InceptionDate string         `json:"inceptionDate,omitempty"`
	Description   string         `json:"description,omitempty"`
	Source        string         `json:"source"`
	Timestamp     time.Time      `json:"timestamp"`
}

// DataQuality 报告数据质量
type DataQuality string

const (
	QualityHigh   DataQuality = "high"
	QualityMedium DataQuality = "medium"
	QualityLow    DataQuality = "low"
)

// ReportMetadata 报告统计信息
type ReportMetadata struct {
	TotalAnalyzed int         `json:"totalInvestmentsAnalyzed"`
	AverageYield  float64     `json:"averageYield"`
	TopSectors    []string    `json:"topSectors"`
	DataQuality   DataQuality `json:"dataQuality"`
	ETFCount      int         `json:"etfCount"`
	StockCount    int         `json:"stockCount"`
}

// SummaryReport 分析报告
type SummaryReport struct {
	Title     string             `json:"title,omitempty"`
	Summary   string             `json:"summary"`
	TopPicks  []InvestmentRecord `json:"topPicks"`
	Timestamp time.Time          `json:"timestamp"`
	Metadata  *ReportMetadata    `json:"metadata,omitempty"`
}

// Quote 实时报价
type Quote struct {
	Symbol           string    `json:"symbol"`
	Price            float64   `json:"price"`
	Open             float64   `json:"open"`
	High             float64   `json:"high"`
	Low              float64   `json:"low"`
	PreviousClose    float64   `json:"previousClose"`
	Change           float64   `json:"change"`
	ChangePercent    string    `json:"changePercent"`
	Volume           int64     `json:"volume"`
	LatestTradingDay string    `json:"latestTradingDay"`
	Source           string    `json:"source"`
	Timestamp        time.Time `json:"timestamp"`
}

// MarketStatus 市场状态
type MarketStatus struct {
	Timestamp    time.Time `json:"timestamp"`
	MarketStatus string    `json:"marketStatus"` // "open" 或 "closed"
	LastUpdated  string    `json:"lastUpdated"`  // 最近交易日
}

// Float 返回指向 v 的指针
func Float(v float64) *float64 { return &v }
