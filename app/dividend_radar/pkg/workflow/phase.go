package workflow

import "fmt"

// Phase 工作流状态，同时决定下一个执行的节点
type Phase uint8

const (
	PhaseStart Phase = iota
	PhaseLoadPreferences
	PhaseGenerateSearchTerms
	PhaseScrapeData
	PhaseSummarizeData
	PhaseFormatReport
	PhaseGeneralChat
	PhaseComplete
	PhaseError
)

var phaseNames = [...]string{
	PhaseStart:               "start",
	PhaseLoadPreferences:     "load_preferences",
	PhaseGenerateSearchTerms: "generate_search_terms",
	PhaseScrapeData:          "scrape_data",
	PhaseSummarizeData:       "summarize_data",
	PhaseFormatReport:        "format_report",
	PhaseGeneralChat:         "general_chat",
	PhaseComplete:            "complete",
	PhaseError:               "error",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// Terminal 是否为终止状态
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseError
}

// ParsePhase 由名称解析状态
func ParsePhase(s string) (Phase, error) {
	for i, name := range phaseNames {
		if name == s {
			return Phase(i), nil
		}
	}
	return 0, fmt.Errorf("unknown workflow phase: %q", s)
}

// MarshalText 实现 encoding.TextMarshaler
func (p Phase) MarshalText() ([]byte, error) {
	if int(p) >= len(phaseNames) {
		return nil, fmt.Errorf("invalid workflow phase: %d", uint8(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (p *Phase) UnmarshalText(b []byte) error {
	v, err := ParsePhase(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
