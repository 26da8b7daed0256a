package workflow

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
)

const (
	msgMissingFields = "Missing required fields: sectors, regions, or yieldRange"
	msgNoInputData   = "No input data available"
)

// loadPreferences 将研究请求规范化为 UserPreferences
func (e *Engine) loadPreferences(_ context.Context, s State) State {
	var req model.ResearchRequest
	switch {
	case s.ResearchRequest != nil:
		req = *s.ResearchRequest
	case s.UserInput != nil:
		if err := json.Unmarshal([]byte(strings.TrimSpace(*s.UserInput)), &req); err != nil {
			return s.fail("Failed to parse user input: " + err.Error())
		}
	default:
		return s.fail(msgNoInputData)
	}

	if len(req.Sectors) == 0 || len(req.Regions) == 0 || len(req.YieldRange) < 2 {
		return s.fail(msgMissingFields)
	}

	prefs := &model.UserPreferences{
		Sectors:         append([]string(nil), req.Sectors...),
		Regions:         append([]string(nil), req.Regions...),
		YieldMin:        req.YieldRange[0],
		YieldMax:        req.YieldRange[1],
		InvestmentTypes: normalizeTypes(req.InvestmentTypes),
	}
	if len(req.MarketCapRange) == 2 {
		prefs.MarketCapRange = &[2]float64{req.MarketCapRange[0], req.MarketCapRange[1]}
	}
	if req.PERatioMax != nil {
		prefs.PERatioMax = model.Float(*req.PERatioMax)
	}

	s.Preferences = prefs
	return s.next(PhaseGenerateSearchTerms)
}

// normalizeTypes 去重并规范大小写，未指定或全部无法识别时默认包含两种
func normalizeTypes(in []model.InvestmentType) []model.InvestmentType {
	var out []model.InvestmentType
	seen := make(map[model.InvestmentType]bool)
	for _, raw := range in {
		t, ok := model.ParseInvestmentType(string(raw))
		if !ok || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return append([]model.InvestmentType(nil), model.AllInvestmentTypes...)
	}
	return out
}
