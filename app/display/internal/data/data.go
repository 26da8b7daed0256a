package data

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/config"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/storage"
)

// runStore 运行记录存储，由 storage.Storage 实现
type runStore interface {
	SaveRun(ctx context.Context, run storage.Run) error
	GetRun(ctx context.Context, id string) (*storage.Run, error)
	ListRuns(ctx context.Context, inputType string, limit, offset uint64) ([]storage.Run, error)
}

// Data 数据层资源，未配置数据库时 store 为空
type Data struct {
	store runStore
}

// NewData 配置了数据库时连接存储，连接失败时服务仍可运行但不保存记录
func NewData(cfg *config.Config, logger log.Logger) (*Data, func(), error) {
	helper := log.NewHelper(logger)
	if !cfg.DB.Enabled() {
		helper.Info("未配置数据库信息，运行记录将不会被保存")
		return &Data{}, func() {}, nil
	}

	s, err := storage.NewStorage(cfg.DB)
	if err != nil {
		helper.Errorf("无法连接数据库: %v", err)
		return &Data{}, func() {}, nil
	}

	cleanup := func() {
		helper.Info("closing the data resources")
		s.Close()
	}
	return &Data{store: s}, cleanup, nil
}
