// Package workflow 研究与顾问对话的工作流引擎。
//
// 每个节点接收并返回 State，下一个执行的节点只由 State.Status 决定，
// 进入 complete 或 error 后结束。
package workflow

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/config"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/document"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/llm"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/logger"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/market"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/market/factory"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/ratelimit"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/scrape"
)

const defaultErrorMessage = "An unexpected error occurred"

// Scraper 按检索词获取并过滤标的
type Scraper interface {
	Run(ctx context.Context, query string, prefs model.UserPreferences) scrape.Result
}

// DocumentLoader 加载对话中引用的网页
type DocumentLoader interface {
	Load(ctx context.Context, rawURL string) (*document.Document, error)
}

// Settings 节点使用的数量上限
type Settings struct {
	TopPicks     int
	MaxTerms     int
	MaxSentences int
	MaxQuotes    int
	MaxSteps     int
}

// DefaultSettings 默认上限
func DefaultSettings() Settings {
	return Settings{
		TopPicks:     5,
		MaxTerms:     5,
		MaxSentences: 6,
		MaxQuotes:    3,
		MaxSteps:     16,
	}
}

// SettingsFromConfig 从配置生成上限
func SettingsFromConfig(cfg *config.Config) Settings {
	s := DefaultSettings()
	if cfg.Report.TopPicks > 0 {
		s.TopPicks = cfg.Report.TopPicks
	}
	if cfg.Chat.MaxSentences > 0 {
		s.MaxSentences = cfg.Chat.MaxSentences
	}
	if cfg.Chat.MaxQuotes > 0 {
		s.MaxQuotes = cfg.Chat.MaxQuotes
	}
	return s
}

// Engine 工作流引擎，可被多个请求并发使用，每次 Run 的状态互不共享
type Engine struct {
	llm      llm.Client
	scraper  Scraper
	quotes   market.QuoteFetcher
	docs     DocumentLoader
	settings Settings
	hooks    Hooks
	metrics  *Metrics
	pick     func(n int) int
	now      func() time.Time
	graph    *Graph
}

// Option 配置 Engine
type Option func(*Engine)

// WithQuotes 设置对话中使用的实时报价接口
func WithQuotes(q market.QuoteFetcher) Option {
	return func(e *Engine) { e.quotes = q }
}

// WithDocuments 设置网页加载器
func WithDocuments(d DocumentLoader) Option {
	return func(e *Engine) { e.docs = d }
}

// WithSettings 覆盖默认上限
func WithSettings(s Settings) Option {
	return func(e *Engine) { e.settings = s }
}

// WithHooks 设置节点生命周期回调
func WithHooks(h Hooks) Option {
	return func(e *Engine) { e.hooks = h }
}

// WithRegisterer 在 reg 上注册工作流指标
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(e *Engine) { e.metrics = NewMetrics(reg) }
}

// WithRandom 替换后续建议的随机选择，测试中使用
func WithRandom(pick func(n int) int) Option {
	return func(e *Engine) { e.pick = pick }
}

// WithClock 替换时间来源
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New 创建引擎，client 为 nil 时视为未配置大模型
func New(client llm.Client, scraper Scraper, opts ...Option) *Engine {
	e := &Engine{
		llm:      client,
		scraper:  scraper,
		settings: DefaultSettings(),
		pick:     rand.IntN,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.llm == nil {
		e.llm = llm.Unconfigured{Key: "OPENAI_API_KEY"}
	}
	if e.metrics != nil {
		e.hooks = Chain(e.metrics.Hooks(), e.hooks)
	}

	g := newGraph()
	g.Register(PhaseStart, "guard_intent", e.guardIntent)
	g.Register(PhaseLoadPreferences, "load_preferences", e.loadPreferences)
	g.Register(PhaseGenerateSearchTerms, "generate_search_terms", e.generateSearchTerms)
	g.Register(PhaseScrapeData, "scrape_data", e.scrapeData)
	g.Register(PhaseSummarizeData, "summarize_data", e.summarizeData)
	g.Register(PhaseFormatReport, "format_report", e.formatReport)
	g.Register(PhaseGeneralChat, "general_chat", e.generalChat)
	g.Register(PhaseError, "handle_error", handleError)
	e.graph = g
	return e
}

// Components 由配置构建出的外部依赖，调用方可复用其中的报价接口
type Components struct {
	Engine    *Engine
	Providers *factory.Providers
	Limiter   ratelimit.Limiter
}

// NewFromConfig 按配置组装限流器、数据源、大模型和网页加载器
func NewFromConfig(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*Components, error) {
	limiter := ratelimit.New(cfg.RateLimit)

	providers, err := factory.NewProviders(cfg, limiter)
	if err != nil {
		return nil, fmt.Errorf("数据源初始化失败: %w", err)
	}

	client, err := llm.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}

	var scrapeOpts []scrape.Option
	opts := []Option{
		WithQuotes(providers.Quotes),
		WithDocuments(document.NewLoader(cfg.Chat.DocTimeout)),
		WithSettings(SettingsFromConfig(cfg)),
	}
	if reg != nil {
		scrapeOpts = append(scrapeOpts, scrape.WithRegisterer(reg))
		opts = append(opts, WithRegisterer(reg))
	}
	orch := scrape.New(providers.List, scrape.NewMatcher(scrape.FilterOptionsFromConfig(cfg.Filter)), scrapeOpts...)

	return &Components{
		Engine:    New(client, orch, opts...),
		Providers: providers,
		Limiter:   limiter,
	}, nil
}

// Close 释放限流器持有的连接
func (c *Components) Close() error {
	if c == nil || c.Limiter == nil {
		return nil
	}
	return c.Limiter.Close()
}

// Run 从 guard_intent 开始执行到 complete 或 error，任何 panic 都转为错误状态
func (e *Engine) Run(ctx context.Context, req Request) (final State) {
	s := State{
		RunID:           uuid.NewString(),
		UserInput:       req.UserInput,
		ResearchRequest: req.Research,
		Status:          PhaseStart,
	}
	log := logger.Log.WithField("run_id", s.RunID)
	log.Infof("工作流开始")
	start := e.now()

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("工作流异常: %v\n%s", r, debug.Stack())
			final = handleError(ctx, s.fail(fmt.Sprint(r)))
		}
		if e.metrics != nil {
			e.metrics.Runs.WithLabelValues(string(final.InputType), final.Status.String()).Inc()
		}
		log.WithField("status", final.Status).Infof("工作流结束，耗时 %v", e.now().Sub(start))
	}()

	for step := 0; !s.Status.Terminal(); step++ {
		if step >= e.settings.MaxSteps {
			s = s.fail(fmt.Sprintf("workflow exceeded %d steps", e.settings.MaxSteps))
			break
		}
		s = e.step(ctx, s)
	}

	if s.Status == PhaseError {
		s = e.step(ctx, s)
	}
	return s
}

// step 执行当前状态对应的节点并校验状态转移
func (e *Engine) step(ctx context.Context, s State) State {
	from := s.Status
	n, err := e.graph.lookup(from)
	if err != nil {
		return s.fail(err.Error())
	}

	event := &NodeEvent{RunID: s.RunID, Node: n.name, Phase: from, Time: e.now()}
	if e.hooks.OnNodeEnter != nil {
		e.hooks.OnNodeEnter(ctx, event)
	}

	next := runNode(ctx, n, s)
	next.Trace = append(append([]string(nil), s.Trace...), n.name)

	if from != PhaseError && !Allowed(from, next.Status) {
		next = next.fail(fmt.Sprintf("illegal transition from %s to %s", from, next.Status))
	}

	event.Next = next.Status
	event.Duration = e.now().Sub(event.Time)
	if e.hooks.OnNodeLeave != nil {
		e.hooks.OnNodeLeave(ctx, event)
	}
	logger.Log.WithField("run_id", s.RunID).Debugf("节点 [%s] 完成: %s -> %s", n.name, from, next.Status)
	return next
}

// runNode 将节点内的 panic 转为错误状态
func runNode(ctx context.Context, n namedNode, s State) (out State) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.WithField("run_id", s.RunID).Errorf("节点 [%s] 异常: %v", n.name, r)
			out = s.fail(fmt.Sprintf("%s: %v", n.name, r))
		}
	}()
	return n.run(ctx, s)
}

// handleError 保证终止时带有错误信息
func handleError(_ context.Context, s State) State {
	if s.Error == "" {
		s.Error = defaultErrorMessage
	}
	s.Status = PhaseError
	logger.Log.WithField("run_id", s.RunID).Warnf("工作流失败: %s", s.Error)
	return s
}
