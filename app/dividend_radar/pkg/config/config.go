package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config 项目配置结构体
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Market      MarketConfig      `yaml:"market"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Filter      FilterConfig      `yaml:"filter"`
	Report      ReportConfig      `yaml:"report"`
	Chat        ChatConfig        `yaml:"chat"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	DB          DBConfig          `yaml:"db"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	Provider    string        `yaml:"provider" validate:"omitempty,oneof=openai anthropic gemini"`
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model" validate:"required"`
	Temperature float32       `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int           `yaml:"max_tokens" validate:"gt=0"`
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxRetries  int           `yaml:"max_retries" validate:"gte=0,lte=10"`
}

// MarketConfig 行情数据源配置，Providers 的顺序即调用优先级
type MarketConfig struct {
	Providers      []string             `yaml:"providers" validate:"dive,oneof=alphavantage dataset gobankingrates"`
	AlphaVantage   AlphaVantageConfig   `yaml:"alpha_vantage"`
	GoBankingRates GoBankingRatesConfig `yaml:"gobankingrates"`
}

// AlphaVantageConfig Alpha Vantage 配置
type AlphaVantageConfig struct {
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	MaxSymbols   int           `yaml:"max_symbols" validate:"gt=0"`
	RequestDelay time.Duration `yaml:"request_delay" validate:"gte=0"`
	CacheTTL     time.Duration `yaml:"cache_ttl" validate:"gte=0"`
	Timeout      time.Duration `yaml:"timeout" validate:"gt=0"`
}

// GoBankingRatesConfig 网页抓取源配置
type GoBankingRatesConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// RateLimitConfig 外部行情接口的滑动窗口限流
type RateLimitConfig struct {
	Backend     string        `yaml:"backend" validate:"oneof=memory redis"`
	MaxRequests int           `yaml:"max_requests" validate:"gt=0"`
	Window      time.Duration `yaml:"window" validate:"gt=0"`
	Redis       RedisConfig   `yaml:"redis"`
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// FilterConfig 偏好过滤的收益率容差
type FilterConfig struct {
	YieldToleranceLow  float64 `yaml:"yield_tolerance_low" validate:"gte=0"`
	YieldToleranceHigh float64 `yaml:"yield_tolerance_high" validate:"gte=0"`
}

// ReportConfig 报告配置
type ReportConfig struct {
	TopPicks int `yaml:"top_picks" validate:"gt=0"`
}

// ChatConfig AI 顾问配置
type ChatConfig struct {
	MaxSentences int           `yaml:"max_sentences" validate:"gt=0"`
	MaxQuotes    int           `yaml:"max_quotes" validate:"gt=0"`
	DocTimeout   time.Duration `yaml:"doc_timeout" validate:"gt=0"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig LLM 调用的并发控制
type ConcurrencyConfig struct {
	QPS int `yaml:"qps" validate:"gte=0"`
	RPM int `yaml:"rpm" validate:"gte=0"`
}

// DBConfig 数据库相关配置
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// Enabled 是否配置了数据库
func (c DBConfig) Enabled() bool { return c.Host != "" }

// DSN 返回 lib/pq 连接串
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.3,
			MaxTokens:   1000,
			Timeout:     20 * time.Second,
			MaxRetries:  2,
		},
		Market: MarketConfig{
			Providers: []string{"alphavantage", "dataset", "gobankingrates"},
			AlphaVantage: AlphaVantageConfig{
				BaseURL:      "https://www.alphavantage.co/query",
				MaxSymbols:   5,
				RequestDelay: time.Second,
				CacheTTL:     10 * time.Minute,
				Timeout:      10 * time.Second,
			},
			GoBankingRates: GoBankingRatesConfig{
				URL:     "https://www.gobankingrates.com/investing/funds/best-high-dividend-etf/",
				Timeout: 10 * time.Second,
			},
		},
		RateLimit: RateLimitConfig{
			Backend:     "memory",
			MaxRequests: 5,
			Window:      30 * time.Second,
			Redis:       RedisConfig{Prefix: "dividend_radar:ratelimit:"},
		},
		Filter: FilterConfig{
			YieldToleranceLow:  1.5,
			YieldToleranceHigh: 3.0,
		},
		Report: ReportConfig{TopPicks: 5},
		Chat: ChatConfig{
			MaxSentences: 6,
			MaxQuotes:    3,
			DocTimeout:   15 * time.Second,
		},
		Log:         LogConfig{Level: "info"},
		Concurrency: ConcurrencyConfig{QPS: 2, RPM: 60},
		DB:          DBConfig{Port: 5432},
	}
}

// LoadConfig 从指定路径加载配置，未出现的字段保留默认值
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv 使用环境变量覆盖密钥类配置
func (c *Config) ApplyEnv() {
	switch c.LLM.Provider {
	case "anthropic":
		setFromEnv(&c.LLM.APIKey, "ANTHROPIC_API_KEY")
	case "gemini":
		setFromEnv(&c.LLM.APIKey, "GEMINI_API_KEY")
	default:
		setFromEnv(&c.LLM.APIKey, "OPENAI_API_KEY")
	}
	setFromEnv(&c.Market.AlphaVantage.APIKey, "ALPHA_VANTAGE_API_KEY")
	setFromEnv(&c.RateLimit.Redis.Addr, "REDIS_ADDR")
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.RateLimit.Backend == "redis" && c.RateLimit.Redis.Addr == "" {
		return fmt.Errorf("invalid config: rate_limit.redis.addr is required for redis backend")
	}
	return nil
}
