package data

import (
	"context"
	"errors"
	"time"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/dividend_radar/app/display/internal/domain"
	"github.com/iWorld-y/dividend_radar/app/display/internal/repo"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/storage"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/workflow"
)

// ErrStorageDisabled 未配置数据库
var ErrStorageDisabled = kerrors.ServiceUnavailable("STORAGE_DISABLED", "run storage is not configured")

type runRepo struct {
	data *Data
	log  *log.Helper
	now  func() time.Time
}

func NewRunRepo(data *Data, logger log.Logger) repo.RunRepo {
	return &runRepo{
		data: data,
		log:  log.NewHelper(logger),
		now:  time.Now,
	}
}

func (r *runRepo) SaveRun(ctx context.Context, s workflow.State) error {
	if r.data.store == nil {
		return nil
	}
	run, err := storage.RunFromState(s, r.now())
	if err != nil {
		return err
	}
	return r.data.store.SaveRun(ctx, run)
}

func (r *runRepo) ListRuns(ctx context.Context, inputType string, page, pageSize int) ([]*domain.RunSummary, error) {
	if r.data.store == nil {
		return nil, ErrStorageDisabled
	}
	offset := (page - 1) * pageSize
	runs, err := r.data.store.ListRuns(ctx, inputType, uint64(pageSize), uint64(offset))
	if err != nil {
		return nil, err
	}

	summaries := make([]*domain.RunSummary, 0, len(runs))
	for _, run := range runs {
		sum := &domain.RunSummary{
			ID:        run.ID,
			InputType: run.InputType,
			Status:    run.Status,
			Error:     run.Error,
			CreatedAt: run.CreatedAt,
		}
		report, err := run.DecodeReport()
		if err != nil {
			r.log.Warnf("解析报告失败 [%s]: %v", run.ID, err)
		} else if report != nil {
			sum.Title = report.Title
			sum.PickCount = len(report.TopPicks)
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}

func (r *runRepo) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	if r.data.store == nil {
		return nil, ErrStorageDisabled
	}
	run, err := r.data.store.GetRun(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, kerrors.NotFound("RUN_NOT_FOUND", "run not found")
		}
		return nil, err
	}

	report, err := run.DecodeReport()
	if err != nil {
		return nil, err
	}
	trace := run.Trace
	if trace == nil {
		trace = []string{}
	}
	return &domain.Run{
		ID:        run.ID,
		InputType: run.InputType,
		Status:    run.Status,
		Error:     run.Error,
		Report:    report,
		Trace:     trace,
		CreatedAt: run.CreatedAt,
	}, nil
}
