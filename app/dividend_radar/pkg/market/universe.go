package market

import (
	"strings"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
)

// PopularETFs 常见高股息 ETF，按探测优先级排列
var PopularETFs = []string{
	"VYM", "SCHD", "HDV", "DGRO", "NOBL", "VIG", "DVY", "SPHD", "SPYD", "VTI",
	"VXUS", "IEMG", "VEA", "VWO", "VTEB", "VGIT", "VCIT", "VNQ", "VNQI", "XLF",
}

// PopularStocks 常见高股息个股
var PopularStocks = []string{
	"JNJ", "KO", "PG", "PEP", "XOM", "CVX", "T", "VZ", "ABBV", "MO",
	"O", "JPM", "IBM", "CSCO", "TXN", "DUK", "SO", "NEE", "PFE", "MMM",
}

// fallbackYields 数据源未返回股息率时使用的参考值（百分比）
var fallbackYields = map[string]float64{
	"VYM": 2.8, "SCHD": 3.4, "HDV": 3.1, "DGRO": 2.1, "NOBL": 1.8,
	"VIG": 1.7, "DVY": 3.2, "SPHD": 4.2, "SPYD": 3.9, "VTI": 1.3,
	"VXUS": 2.9, "IEMG": 2.6, "VEA": 3.0, "VWO": 3.1, "VTEB": 2.9,
	"VGIT": 3.2, "VCIT": 4.0, "VNQ": 3.9, "VNQI": 4.1, "XLF": 1.6,
	"JNJ": 3.0, "KO": 3.0, "PG": 2.4, "PEP": 3.1, "XOM": 3.3,
	"CVX": 4.1, "T": 5.2, "VZ": 6.4, "ABBV": 3.6, "MO": 7.8,
	"O": 5.6, "JPM": 2.2, "IBM": 3.7, "CSCO": 2.9, "TXN": 2.8,
	"DUK": 4.0, "SO": 3.6, "NEE": 2.7, "PFE": 5.9, "MMM": 2.1,
}

// defaultYield 未知标的的兜底股息率
const defaultYield = 2.5

// Profile 标的的静态分类信息
type Profile struct {
	Sector string
	Region string
}

var profiles = map[string]Profile{
	"VYM": {"Finance", "USA"}, "SCHD": {"Finance", "USA"}, "HDV": {"Energy", "USA"},
	"DGRO": {"Technology", "USA"}, "NOBL": {"Industrials", "USA"}, "VIG": {"Technology", "USA"},
	"DVY": {"Utilities", "USA"}, "SPHD": {"Utilities", "USA"}, "SPYD": {"Real Estate", "USA"},
	"VTI": {"Technology", "USA"}, "VXUS": {"Diversified", "Global"}, "IEMG": {"Diversified", "Emerging Markets"},
	"VEA": {"Diversified", "International"}, "VWO": {"Diversified", "Emerging Markets"},
	"VTEB": {"Fixed Income", "USA"}, "VGIT": {"Fixed Income", "USA"}, "VCIT": {"Fixed Income", "USA"},
	"VNQ": {"Real Estate", "USA"}, "VNQI": {"Real Estate", "International"}, "XLF": {"Financial Services", "USA"},
	"JNJ": {"Healthcare", "USA"}, "KO": {"Consumer Staples", "USA"}, "PG": {"Consumer Staples", "USA"},
	"PEP": {"Consumer Staples", "USA"}, "XOM": {"Energy", "USA"}, "CVX": {"Energy", "USA"},
	"T": {"Communication Services", "USA"}, "VZ": {"Communication Services", "USA"}, "ABBV": {"Healthcare", "USA"},
	"MO": {"Consumer Staples", "USA"}, "O": {"Real Estate", "USA"}, "JPM": {"Financial Services", "USA"},
	"IBM": {"Technology", "USA"}, "CSCO": {"Technology", "USA"}, "TXN": {"Technology", "USA"},
	"DUK": {"Utilities", "USA"}, "SO": {"Utilities", "USA"}, "NEE": {"Utilities", "USA"},
	"PFE": {"Healthcare", "USA"}, "MMM": {"Industrials", "USA"},
}

// FallbackYield 返回参考股息率
func FallbackYield(symbol string) float64 {
	if y, ok := fallbackYields[strings.ToUpper(symbol)]; ok {
		return y
	}
	return defaultYield
}

// ProfileOf 返回标的的分类信息
func ProfileOf(symbol string) (Profile, bool) {
	p, ok := profiles[strings.ToUpper(symbol)]
	return p, ok
}

// IsKnown 是否为参考数据中的标的
func IsKnown(symbol string) bool {
	_, ok := profiles[strings.ToUpper(symbol)]
	return ok
}

// IsETF 是否为已知 ETF
func IsETF(symbol string) bool {
	symbol = strings.ToUpper(symbol)
	for _, s := range PopularETFs {
		if s == symbol {
			return true
		}
	}
	return false
}

// Universe 按偏好品种返回候选标的，多个品种时交替排列；检索词中出现的已知代码排在最前
func Universe(query string, types []model.InvestmentType) []string {
	var lists [][]string
	for _, t := range types {
		switch t {
		case model.TypeETF:
			lists = append(lists, PopularETFs)
		case model.TypeStock:
			lists = append(lists, PopularStocks)
		}
	}
	if len(lists) == 0 {
		lists = append(lists, PopularETFs)
	}

	var candidates []string
	for i := 0; ; i++ {
		added := false
		for _, l := range lists {
			if i < len(l) {
				candidates = append(candidates, l[i])
				added = true
			}
		}
		if !added {
			break
		}
	}

	mentioned := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(strings.ToUpper(query), func(r rune) bool {
		return !(r >= 'A' && r <= 'Z')
	}) {
		mentioned[tok] = true
	}

	var first, rest []string
	for _, s := range candidates {
		// 单字母代码（如 T、O）容易与普通单词混淆，不参与提前
		if mentioned[s] && len(s) > 1 {
			first = append(first, s)
		} else {
			rest = append(rest, s)
		}
	}
	return append(first, rest...)
}
