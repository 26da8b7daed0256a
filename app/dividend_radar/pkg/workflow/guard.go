package workflow

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
)

const (
	msgNoInput        = "No valid input provided"
	msgEmptyInput     = "Empty user input"
	msgInvalidSectors = "Invalid sectors: must be non-empty array of strings"
	msgInvalidRegions = "Invalid regions: must be non-empty array of strings"
	msgInvalidYield   = "Invalid yield range: must be [min, max] where 0 <= min <= max <= 100"
)

var requiredFields = []string{"sectors", "regions", "yieldRange"}

// guardIntent 判断输入是研究请求还是对话，并校验研究请求
func (e *Engine) guardIntent(_ context.Context, s State) State {
	if s.ResearchRequest != nil {
		r := s.ResearchRequest
		if msg := validateResearch(r.Sectors, r.Regions, r.YieldRange); msg != "" {
			return rejectInput(s, msg)
		}
		s.InputType = model.InputResearch
		return s.next(PhaseLoadPreferences)
	}

	if s.UserInput == nil {
		return rejectInput(s, msgNoInput)
	}
	text := strings.TrimSpace(*s.UserInput)
	if text == "" {
		return rejectInput(s, msgEmptyInput)
	}

	// 不是合法 JSON 的文本一律进入对话，JSON null 也视为对话
	if !json.Valid([]byte(text)) || text == "null" {
		s.InputType = model.InputGeneral
		return s.next(PhaseGeneralChat)
	}

	fields, ok := researchFields(text)
	if !ok {
		return rejectInput(s, msgNoInput)
	}
	if msg := validateRawResearch(fields); msg != "" {
		return rejectInput(s, msg)
	}
	s.InputType = model.InputResearch
	return s.next(PhaseLoadPreferences)
}

func rejectInput(s State, msg string) State {
	s.InputType = ""
	return s.fail(msg)
}

// researchFields 解析 JSON 对象，三个必填字段都存在且非空值时返回 true
func researchFields(text string) (map[string]json.RawMessage, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, false
	}
	for _, name := range requiredFields {
		if !truthy(fields[name]) {
			return nil, false
		}
	}
	return fields, true
}

// truthy 字段存在且不是 null、false、0 或空字符串
func truthy(raw json.RawMessage) bool {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}

func validateRawResearch(fields map[string]json.RawMessage) string {
	var sectors, regions []string
	if err := json.Unmarshal(fields["sectors"], &sectors); err != nil {
		return msgInvalidSectors
	}
	if err := json.Unmarshal(fields["regions"], &regions); err != nil {
		return msgInvalidRegions
	}
	var yieldRange []float64
	if err := json.Unmarshal(fields["yieldRange"], &yieldRange); err != nil {
		return msgInvalidYield
	}
	return validateResearch(sectors, regions, yieldRange)
}

// validateResearch 返回第一个不合法字段的错误信息，全部合法时返回空串
func validateResearch(sectors, regions []string, yieldRange []float64) string {
	if !validList(sectors) {
		return msgInvalidSectors
	}
	if !validList(regions) {
		return msgInvalidRegions
	}
	if !validYieldRange(yieldRange) {
		return msgInvalidYield
	}
	return ""
}

func validList(items []string) bool {
	if len(items) == 0 {
		return false
	}
	for _, it := range items {
		if strings.TrimSpace(it) == "" {
			return false
		}
	}
	return true
}

// validYieldRange NaN 不满足任何比较，因此同样被拒绝
func validYieldRange(r []float64) bool {
	if len(r) != 2 {
		return false
	}
	return r[0] >= 0 && r[0] <= r[1] && r[1] <= 100
}
