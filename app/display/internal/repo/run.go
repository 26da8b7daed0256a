package repo

import (
	"context"

	"github.com/iWorld-y/dividend_radar/app/display/internal/domain"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/workflow"
)

// RunRepo 工作流运行记录仓库接口
type RunRepo interface {
	// SaveRun 保存一次运行的最终状态
	SaveRun(ctx context.Context, s workflow.State) error
	// ListRuns 分页获取运行摘要，inputType 为空时不过滤
	ListRuns(ctx context.Context, inputType string, page, pageSize int) ([]*domain.RunSummary, error)
	// GetRun 根据ID获取运行详情
	GetRun(ctx context.Context, id string) (*domain.Run, error)
}
