package server

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iWorld-y/dividend_radar/app/display/internal/conf"
	"github.com/iWorld-y/dividend_radar/app/display/internal/usecase"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/config"
	drLogger "github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/logger"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/market"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/workflow"
)

// NewRadarConfig 将 internal/conf.Radar 转换为 pkg/config.Config 并初始化引擎日志
func NewRadarConfig(c *conf.Radar, logger log.Logger) (*config.Config, error) {
	cfg, err := toConfig(c)
	if err != nil {
		return nil, err
	}

	if err := drLogger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.NewHelper(logger).Errorf("Failed to init dividend_radar logger: %v", err)
		_ = drLogger.InitLogger("info", "") // 降级处理
	}
	return cfg, nil
}

// toConfig 以默认配置为基础覆盖已设置的字段
func toConfig(c *conf.Radar) (*config.Config, error) {
	cfg := config.Default()
	if c == nil {
		cfg.ApplyEnv()
		return cfg, cfg.Validate()
	}

	if l := c.Llm; l != nil {
		setString(&cfg.LLM.Provider, l.Provider)
		setString(&cfg.LLM.BaseURL, l.BaseUrl)
		setString(&cfg.LLM.APIKey, l.ApiKey)
		setString(&cfg.LLM.Model, l.Model)
		if l.Temperature > 0 {
			cfg.LLM.Temperature = l.Temperature
		}
		if l.MaxTokens > 0 {
			cfg.LLM.MaxTokens = int(l.MaxTokens)
		}
		if err := setDuration(&cfg.LLM.Timeout, l.Timeout, "llm.timeout"); err != nil {
			return nil, err
		}
	}
	if m := c.Market; m != nil {
		if len(m.Providers) > 0 {
			cfg.Market.Providers = m.Providers
		}
		if av := m.AlphaVantage; av != nil {
			setString(&cfg.Market.AlphaVantage.APIKey, av.ApiKey)
			if av.MaxSymbols > 0 {
				cfg.Market.AlphaVantage.MaxSymbols = int(av.MaxSymbols)
			}
		}
	}
	if rl := c.RateLimit; rl != nil {
		setString(&cfg.RateLimit.Backend, rl.Backend)
		if rl.MaxRequests > 0 {
			cfg.RateLimit.MaxRequests = int(rl.MaxRequests)
		}
		if err := setDuration(&cfg.RateLimit.Window, rl.Window, "rate_limit.window"); err != nil {
			return nil, err
		}
		if r := rl.Redis; r != nil {
			setString(&cfg.RateLimit.Redis.Addr, r.Addr)
			setString(&cfg.RateLimit.Redis.Password, r.Password)
			cfg.RateLimit.Redis.DB = int(r.Db)
		}
	}
	if r := c.Report; r != nil && r.TopPicks > 0 {
		cfg.Report.TopPicks = int(r.TopPicks)
	}
	if l := c.Log; l != nil {
		setString(&cfg.Log.Level, l.Level)
		setString(&cfg.Log.File, l.File)
	}
	if cc := c.Concurrency; cc != nil {
		cfg.Concurrency.QPS = int(cc.Qps)
		cfg.Concurrency.RPM = int(cc.Rpm)
	}
	if db := c.Db; db != nil {
		cfg.DB = config.DBConfig{
			Host:     db.Host,
			Port:     int(db.Port),
			User:     db.User,
			Password: db.Password,
			Name:     db.Name,
		}
		if cfg.DB.Port == 0 {
			cfg.DB.Port = 5432
		}
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v, field string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", field, v, err)
	}
	*dst = d
	return nil
}

// NewRegistry 服务级指标注册表，包含 Go 运行时指标
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// NewWorkflow 初始化股息雷达工作流，cleanup 关闭限流器连接
func NewWorkflow(cfg *config.Config, reg *prometheus.Registry, logger log.Logger) (*workflow.Components, func(), error) {
	helper := log.NewHelper(logger)
	comps, err := workflow.NewFromConfig(context.Background(), cfg, reg)
	if err != nil {
		helper.Errorf("Failed to init workflow: %v", err)
		return nil, nil, err
	}
	cleanup := func() {
		helper.Info("closing the workflow resources")
		if err := comps.Close(); err != nil {
			helper.Errorf("Failed to close workflow: %v", err)
		}
	}
	return comps, cleanup, nil
}

// NewRunner 工作流执行入口
func NewRunner(c *workflow.Components) usecase.Runner {
	return c.Engine
}

// NewStatusFetcher 市场状态数据源
func NewStatusFetcher(c *workflow.Components) market.StatusFetcher {
	return c.Providers.Status
}
