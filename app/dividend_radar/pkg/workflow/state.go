package workflow

import (
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
)

// State 在节点间按值传递的工作流状态，节点返回新状态而不是原地修改
type State struct {
	RunID           string                   `json:"runId"`
	UserInput       *string                  `json:"userInput,omitempty"`
	ResearchRequest *model.ResearchRequest   `json:"researchRequest,omitempty"`
	Status          Phase                    `json:"status"`
	Error           string                   `json:"error,omitempty"`
	InputType       model.InputType          `json:"inputType,omitempty"`
	Preferences     *model.UserPreferences   `json:"preferences,omitempty"`
	SearchTerms     []model.SearchTerm       `json:"searchTerms,omitempty"`
	ScrapedData     []model.InvestmentRecord `json:"scrapedData,omitempty"`
	ScrapeErrors    []string                 `json:"scrapeErrors,omitempty"`
	Summary         *model.SummaryReport     `json:"summary,omitempty"`
	Report          *model.SummaryReport     `json:"report,omitempty"`
	// Trace 依次执行过的节点
	Trace []string `json:"trace,omitempty"`
}

// Request 一次工作流调用的输入，UserInput 与 Research 只应设置其一
type Request struct {
	UserInput *string
	Research  *model.ResearchRequest
}

// TextInput 自由文本输入，可能是 JSON 形式的研究请求，也可能是对话
func TextInput(text string) Request {
	return Request{UserInput: &text}
}

// ResearchInput 结构化研究请求
func ResearchInput(req model.ResearchRequest) Request {
	return Request{Research: &req}
}

func (s State) fail(msg string) State {
	s.Status = PhaseError
	s.Error = msg
	return s
}

func (s State) next(p Phase) State {
	s.Status = p
	return s
}

// Succeeded 是否正常结束并产出报告
func (s State) Succeeded() bool {
	return s.Status == PhaseComplete && s.Report != nil
}
