package usecase

import (
	"context"
	"errors"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/dividend_radar/app/display/internal/domain"
	"github.com/iWorld-y/dividend_radar/app/display/internal/repo"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/market"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/workflow"
)

// ErrNoStatusSource 未配置市场状态数据源
var ErrNoStatusSource = errors.New("no market status source configured")

// Runner 执行工作流，由 workflow.Engine 实现
type Runner interface {
	Run(ctx context.Context, req workflow.Request) workflow.State
}

// AdvisorUseCase 研究报告与 AI 顾问业务逻辑
type AdvisorUseCase struct {
	runner Runner
	status market.StatusFetcher
	repo   repo.RunRepo
	log    *log.Helper
}

// NewAdvisorUseCase 创建业务逻辑实例，status 可以为空
func NewAdvisorUseCase(runner Runner, status market.StatusFetcher, repo repo.RunRepo, logger log.Logger) *AdvisorUseCase {
	return &AdvisorUseCase{
		runner: runner,
		status: status,
		repo:   repo,
		log:    log.NewHelper(logger),
	}
}

// Research 生成研究报告
func (uc *AdvisorUseCase) Research(ctx context.Context, req model.ResearchRequest) workflow.State {
	return uc.run(ctx, workflow.ResearchInput(req))
}

// Chat AI 顾问对话
func (uc *AdvisorUseCase) Chat(ctx context.Context, query string) workflow.State {
	return uc.run(ctx, workflow.TextInput(query))
}

// run 执行工作流并保存结果，保存失败不影响返回
func (uc *AdvisorUseCase) run(ctx context.Context, req workflow.Request) workflow.State {
	s := uc.runner.Run(ctx, req)
	if err := uc.repo.SaveRun(ctx, s); err != nil {
		uc.log.Warnf("保存运行记录失败 [%s]: %v", s.RunID, err)
	}
	return s
}

// MarketStatus 查询市场开闭市状态
func (uc *AdvisorUseCase) MarketStatus(ctx context.Context) (*model.MarketStatus, error) {
	if uc.status == nil {
		return nil, ErrNoStatusSource
	}
	return uc.status.MarketStatus(ctx)
}

// ListRuns 分页列出运行记录
func (uc *AdvisorUseCase) ListRuns(ctx context.Context, inputType string, page, pageSize int) ([]*domain.RunSummary, error) {
	page, pageSize = NormalizePage(page, pageSize)
	return uc.repo.ListRuns(ctx, inputType, page, pageSize)
}

// NormalizePage 页码从 1 开始，每页默认 10 条、最多 100 条
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return page, pageSize
}

// GetRun 根据ID获取运行详情
func (uc *AdvisorUseCase) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	return uc.repo.GetRun(ctx, id)
}
