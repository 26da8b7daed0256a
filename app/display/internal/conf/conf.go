package conf

// Bootstrap 展示服务配置
type Bootstrap struct {
	Server *Server
	Radar  *Radar
}

type Server struct {
	Http *HTTP
}

type HTTP struct {
	Addr    string
	Timeout string
}

// Radar 股息雷达引擎配置，未设置的字段使用引擎默认值
type Radar struct {
	Llm         *LLM         `json:"llm"`
	Market      *Market      `json:"market"`
	RateLimit   *RateLimit   `json:"rate_limit"`
	Report      *Report      `json:"report"`
	Log         *Log         `json:"log"`
	Concurrency *Concurrency `json:"concurrency"`
	Db          *DB          `json:"db"`
}

type LLM struct {
	Provider    string  `json:"provider"`
	BaseUrl     string  `json:"base_url"`
	ApiKey      string  `json:"api_key"`
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int32   `json:"max_tokens"`
	Timeout     string  `json:"timeout"`
}

type Market struct {
	Providers    []string      `json:"providers"`
	AlphaVantage *AlphaVantage `json:"alpha_vantage"`
}

type AlphaVantage struct {
	ApiKey     string `json:"api_key"`
	MaxSymbols int32  `json:"max_symbols"`
}

type RateLimit struct {
	Backend     string `json:"backend"`
	MaxRequests int32  `json:"max_requests"`
	Window      string `json:"window"`
	Redis       *Redis `json:"redis"`
}

type Redis struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	Db       int32  `json:"db"`
}

type Report struct {
	TopPicks int32 `json:"top_picks"`
}

type Log struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

type Concurrency struct {
	Qps int32 `json:"qps"`
	Rpm int32 `json:"rpm"`
}

type DB struct {
	Host     string `json:"host"`
	Port     int32  `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}
