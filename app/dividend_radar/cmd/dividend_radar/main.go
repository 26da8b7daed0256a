package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/config"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/logger"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/storage"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/workflow"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app 命令运行期间共享的依赖
type app struct {
	cfg   *config.Config
	comps *workflow.Components
	store *storage.Storage
}

// bootstrap 加载配置、初始化日志与工作流，配置了数据库时连接存储
func bootstrap(ctx context.Context, path string) (*app, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("无法加载配置文件: %w", err)
	}

	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		return nil, fmt.Errorf("无法初始化日志: %w", err)
	}
	logger.Log.Info("启动股息雷达...")

	comps, err := workflow.NewFromConfig(ctx, cfg, nil)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, comps: comps}
	if cfg.DB.Enabled() {
		s, err := storage.NewStorage(cfg.DB)
		if err != nil {
			logger.Log.Errorf("无法连接数据库: %v. 运行结果将不会被保存。", err)
		} else {
			a.store = s
			logger.Log.Info("已成功连接到数据库")
		}
	} else {
		logger.Log.Info("未配置数据库信息，跳过数据库连接")
	}
	return a, nil
}

// loadConfig 配置文件不存在时使用默认配置与环境变量
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
		cfg.ApplyEnv()
		return cfg, cfg.Validate()
	}
	return cfg, err
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	if err := a.comps.Close(); err != nil {
		logger.Log.Errorf("关闭限流器失败: %v", err)
	}
}

// run 执行工作流并保存结果
func (a *app) run(ctx context.Context, req workflow.Request) workflow.State {
	final := a.comps.Engine.Run(ctx, req)
	if a.store == nil {
		return final
	}

	rec, err := storage.RunFromState(final, time.Now())
	if err != nil {
		logger.Log.Errorf("编码运行记录失败 [%s]: %v", final.RunID, err)
		return final
	}
	if err := a.store.SaveRun(ctx, rec); err != nil {
		logger.Log.Errorf("保存运行记录失败 [%s]: %v", final.RunID, err)
	} else {
		logger.Log.Infof("运行记录已保存到数据库 [%s]", final.RunID)
	}
	return final
}
