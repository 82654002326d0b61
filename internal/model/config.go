package model

import "time"

// Config holds the complete SlopScore configuration
type Config struct {
	GitHub       GitHubConfig       `yaml:"github" mapstructure:"github"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Resilience   ResilienceConfig   `yaml:"resilience" mapstructure:"resilience"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
}

// GitHubConfig configures access to the source-hosting API
type GitHubConfig struct {
	BaseURL string   `yaml:"base_url" mapstructure:"base_url"`
	Token   string   `yaml:"-" mapstructure:"token"`         // Prefer GITHUB_TOKEN
	Exclude []string `yaml:"exclude" mapstructure:"exclude"` // Glob patterns dropped from the file tree
}

// HTTPConfig configures outbound HTTP clients
type HTTPConfig struct {
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent  string        `yaml:"user_agent" mapstructure:"user_agent"`
	HTTPProxy  string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy    string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// CacheConfig configures caching of hosting API responses
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// LLMConfig configures the generative model backend
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // gemini, openai, anthropic, ollama
	Model       string  `yaml:"model" mapstructure:"model"`
	APIKey      string  `yaml:"-" mapstructure:"api_key"` // Never written to disk
	BaseURL     string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"` // 0 leaves the cap to Gemini, 4096 elsewhere
	Temperature float32 `yaml:"temperature" mapstructure:"temperature"`
}

// ResilienceConfig wraps model calls with retry and timeout when enabled
type ResilienceConfig struct {
	Enabled      bool          `yaml:"enabled" mapstructure:"enabled"`
	MaxAttempts  int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay" mapstructure:"initial_delay"`
	CallTimeout  time.Duration `yaml:"call_timeout" mapstructure:"call_timeout"`
}

// RateLimitingConfig configures per-host request throttling
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ConcurrencyConfig configures batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig configures rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
	Color         bool `yaml:"color" mapstructure:"color"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr         string   `yaml:"addr" mapstructure:"addr"`
	AllowOrigins []string `yaml:"allow_origins" mapstructure:"allow_origins"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			BaseURL: "https://api.github.com/",
		},
		HTTP: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "SlopScore/0.1 (+https://github.com/ppiankov/slopscore)",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
		},
		LLM: LLMConfig{
			Provider:    "gemini",
			Model:       "gemini-2.5-pro",
			Timeout:     120,
			MaxTokens:   0,
			Temperature: 0.2,
		},
		Resilience: ResilienceConfig{
			Enabled:      false, // Literal contract: first fault aborts the run
			MaxAttempts:  3,
			InitialDelay: time.Second,
			CallTimeout:  2 * time.Minute,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 10,
			BurstSize:         5,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Output: OutputConfig{
			IncludeFooter: true,
			Color:         true,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			AllowOrigins: []string{"http://localhost:3000"},
		},
	}
}
