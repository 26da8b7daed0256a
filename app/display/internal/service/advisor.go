package service

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/dividend_radar/app/display/internal/domain"
	"github.com/iWorld-y/dividend_radar/app/display/internal/usecase"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/workflow"
)

// maxChatLength 对话回复的最大字符数
const maxChatLength = 1200

// ResearchReq 研究报告请求
type ResearchReq struct {
	Sectors         []string               `json:"sectors"`
	Regions         []string               `json:"regions"`
	YieldRange      []float64              `json:"yieldRange"`
	InvestmentTypes []model.InvestmentType `json:"investmentTypes,omitempty"`
	MarketCapRange  []float64              `json:"marketCapRange,omitempty"`
	PERatioMax      *float64               `json:"peRatioMax,omitempty"`
}

// ChatReq 对话请求
type ChatReq struct {
	Query string `json:"query"`
}

// Reply HTTP 响应，Code 为状态码
type Reply struct {
	Code int
	Body any
}

// ErrorBody 错误响应
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Status  string `json:"status,omitempty"`
}

// ResearchMetadata 研究报告响应中的统计信息
type ResearchMetadata struct {
	Timestamp     string            `json:"timestamp"`
	TotalAnalyzed int               `json:"totalInvestmentsAnalyzed"`
	AverageYield  float64           `json:"averageYield"`
	TopSectors    []string          `json:"topSectors"`
	DataQuality   model.DataQuality `json:"dataQuality"`
}

// ResearchReply 研究报告成功响应
type ResearchReply struct {
	RunID    string               `json:"runId"`
	Report   *model.SummaryReport `json:"report"`
	Status   string               `json:"status"`
	Metadata ResearchMetadata     `json:"metadata"`
}

// ChatReply 对话响应
type ChatReply struct {
	RunID     string                   `json:"runId"`
	Summary   string                   `json:"summary"`
	TopPicks  []model.InvestmentRecord `json:"topPicks"`
	Timestamp time.Time                `json:"timestamp"`
}

// ListRunsReply 运行记录列表
type ListRunsReply struct {
	Runs     []*domain.RunSummary `json:"runs"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"pageSize"`
}

// AdvisorService HTTP 接口与业务逻辑之间的映射
type AdvisorService struct {
	uc  *usecase.AdvisorUseCase
	log *log.Helper
	now func() time.Time
}

func NewAdvisorService(uc *usecase.AdvisorUseCase, logger log.Logger) *AdvisorService {
	return &AdvisorService{
		uc:  uc,
		log: log.NewHelper(logger),
		now: time.Now,
	}
}

func errorReply(code int, body ErrorBody) *Reply {
	return &Reply{Code: code, Body: body}
}

// Research 运行研究报告工作流
func (s *AdvisorService) Research(ctx context.Context, req *ResearchReq) (*Reply, error) {
	if req.Sectors == nil || req.Regions == nil || req.YieldRange == nil {
		return errorReply(http.StatusBadRequest, ErrorBody{Error: "Sectors, regions, and yield range are required"}), nil
	}
	if len(req.YieldRange) != 2 {
		return errorReply(http.StatusBadRequest, ErrorBody{Error: "Yield range must be an array with two numbers"}), nil
	}

	research := model.ResearchRequest{
		Sectors:         req.Sectors,
		Regions:         req.Regions,
		YieldRange:      req.YieldRange,
		InvestmentTypes: req.InvestmentTypes,
		MarketCapRange:  req.MarketCapRange,
		PERatioMax:      req.PERatioMax,
		Timestamp:       s.now().UTC().Format(time.RFC3339),
	}
	st := s.uc.Research(ctx, research)

	if st.Status == workflow.PhaseError || st.Error != "" {
		details := st.Error
		if details == "" {
			details = "Workflow returned error status"
		}
		return errorReply(http.StatusBadRequest, ErrorBody{Error: "Failed to generate research report", Details: details, Status: "error"}), nil
	}
	if st.Report == nil {
		return errorReply(http.StatusBadRequest, ErrorBody{
			Error:   "No research report generated",
			Details: "Workflow completed but no usable data was found. This may be due to data source limitations.",
			Status:  "error",
		}), nil
	}

	meta := ResearchMetadata{Timestamp: research.Timestamp, TopSectors: []string{}, DataQuality: "unknown"}
	if m := st.Report.Metadata; m != nil {
		meta.TotalAnalyzed = m.TotalAnalyzed
		meta.AverageYield = m.AverageYield
		meta.DataQuality = m.DataQuality
		if m.TopSectors != nil {
			meta.TopSectors = m.TopSectors
		}
	}
	return &Reply{Code: http.StatusOK, Body: ResearchReply{RunID: st.RunID, Report: st.Report, Status: "success", Metadata: meta}}, nil
}

// Chat 运行 AI 顾问工作流
func (s *AdvisorService) Chat(ctx context.Context, req *ChatReq) (*Reply, error) {
	if req.Query == "" {
		return errorReply(http.StatusBadRequest, ErrorBody{Error: "Query is required and must be a string"}), nil
	}

	st := s.uc.Chat(ctx, req.Query)
	if st.Report == nil {
		return errorReply(http.StatusInternalServerError, ErrorBody{Error: "No response generated by AI Consultant", Details: st.Error}), nil
	}

	picks := st.Report.TopPicks
	if picks == nil {
		picks = []model.InvestmentRecord{}
	}
	return &Reply{Code: http.StatusOK, Body: ChatReply{
		RunID:     st.RunID,
		Summary:   formatChatResponse(st.Report.Summary),
		TopPicks:  picks,
		Timestamp: st.Report.Timestamp,
	}}, nil
}

// MarketStatus 查询市场状态
func (s *AdvisorService) MarketStatus(ctx context.Context) (*Reply, error) {
	st, err := s.uc.MarketStatus(ctx)
	if err != nil {
		s.log.Warnf("获取市场状态失败: %v", err)
		return errorReply(http.StatusServiceUnavailable, ErrorBody{
			Error:   "Unable to fetch market status",
			Details: "Alpha Vantage API may be unavailable or rate limited",
		}), nil
	}
	return &Reply{Code: http.StatusOK, Body: st}, nil
}

// ListRuns 分页列出运行记录
func (s *AdvisorService) ListRuns(ctx context.Context, inputType string, page, pageSize int) (*ListRunsReply, error) {
	page, pageSize = usecase.NormalizePage(page, pageSize)
	runs, err := s.uc.ListRuns(ctx, inputType, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &ListRunsReply{Runs: runs, Page: page, PageSize: pageSize}, nil
}

// GetRun 获取运行详情
func (s *AdvisorService) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	return s.uc.GetRun(ctx, id)
}

var (
	boldMarker  = regexp.MustCompile(`\*\*`)
	emphasis    = regexp.MustCompile(`\*([^*]+)\*`)
	headers     = regexp.MustCompile(`#{1,6}\s*`)
	whitespaces = regexp.MustCompile(`\s+`)
)

// formatChatResponse 去掉 Markdown 标记、压缩空白，并按句子边界截断到 maxChatLength
func formatChatResponse(text string) string {
	out := strings.TrimSpace(text)
	if out == "" {
		return ""
	}
	out = boldMarker.ReplaceAllString(out, "")
	out = emphasis.ReplaceAllString(out, "$1")
	out = headers.ReplaceAllString(out, "")
	out = strings.TrimSpace(whitespaces.ReplaceAllString(out, " "))

	if len(out) <= maxChatLength {
		return out
	}
	truncated := out[:maxChatLength]
	// 截断点可能落在多字节字符中间
	for !utf8.ValidString(truncated) {
		truncated = truncated[:len(truncated)-1]
	}
	if i := strings.LastIndex(truncated, "."); i > maxChatLength*7/10 {
		return truncated[:i+1]
	}
	return truncated + "..."
}

