// Package scrape 依次调用各数据源，按偏好过滤并去重。
package scrape

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/logger"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/market"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
)

// Result 一次检索的结果，Errors 记录失败的数据源，不影响其余结果
type Result struct {
	Records []model.InvestmentRecord
	Errors  []string
}

// Orchestrator 数据源编排
type Orchestrator struct {
	providers []market.Provider
	matcher   *Matcher
	failures  *prometheus.CounterVec
}

// Option 配置 Orchestrator
type Option func(*Orchestrator)

// WithRegisterer 在 reg 上注册数据源失败计数
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *Orchestrator) {
		if reg == nil {
			return
		}
		failures := prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dividend_radar_provider_failures_total",
			Help: "Total number of failed market data provider calls",
		}, []string{"provider"})
		if err := reg.Register(failures); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				failures = are.ExistingCollector.(*prometheus.CounterVec)
			} else {
				logger.Log.Warnf("注册数据源失败指标失败: %v", err)
				return
			}
		}
		o.failures = failures
	}
}

// New 创建编排器，providers 的顺序即调用优先级
func New(providers []market.Provider, matcher *Matcher, opts ...Option) *Orchestrator {
	if matcher == nil {
		matcher = NewMatcher(DefaultFilterOptions())
	}
	o := &Orchestrator{providers: providers, matcher: matcher}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run 按优先级调用所有数据源，单个数据源失败只记录不中断
func (o *Orchestrator) Run(ctx context.Context, query string, prefs model.UserPreferences) Result {
	var res Result
	for _, p := range o.providers {
		recs, err := safeFetch(ctx, p, query, prefs)
		// 出错时已返回的部分记录同样保留
		if len(recs) > 0 {
			matched := o.matcher.Filter(recs, prefs)
			logger.Log.WithField("provider", p.Name()).Debugf("检索 [%s]: 获取 %d 条，匹配 %d 条", query, len(recs), len(matched))
			res.Records = append(res.Records, matched...)
		}
		if err != nil {
			logger.Log.WithField("provider", p.Name()).Warnf("数据源获取失败 [%s]: %v", query, err)
			res.Errors = append(res.Errors, fmt.Sprintf("Error fetching data from %s: %v", p.Name(), err))
			if o.failures != nil {
				o.failures.WithLabelValues(p.Name()).Inc()
			}
		}
	}
	res.Records = DedupBySymbol(res.Records)
	return res
}

// safeFetch 将数据源内部的 panic 转为错误
func safeFetch(ctx context.Context, p market.Provider, query string, prefs model.UserPreferences) (recs []model.InvestmentRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()
	return p.Fetch(ctx, query, prefs)
}
