package llm

import (
	"context"
	"time"
)

// Provider defines the interface for generative model backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate sends one prompt and returns the model's text answer.
	// When req.Schema is set the backend is asked for JSON matching it.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// GenerateRequest contains the input for one model call
type GenerateRequest struct {
	// System is the system instruction
	System string

	// Prompt is the user prompt
	Prompt string

	// Schema is the structured-output shape requested (nil for free text)
	Schema *Schema

	// SchemaName names the schema for backends that require it
	SchemaName string

	// Model overrides the configured model
	Model string

	// MaxTokens overrides the configured response length limit
	MaxTokens int
}

// GenerateResponse contains the model's answer
type GenerateResponse struct {
	// Text is the raw answer text
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "gemini", "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey is the credential, passed explicitly at construction
	APIKey string

	// BaseURL for custom endpoints
	BaseURL string

	// Timeout for API requests (seconds)
	Timeout int

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for sampling
	Temperature float32

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "gemini",
		Model:       "gemini-2.5-pro",
		Timeout:     120,
		MaxTokens:   0,
		Temperature: 0.2,
	}
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout <= 0 {
		return fallback
	}
	return time.Duration(c.Timeout) * time.Second
}

func (c Config) maxTokens(override int) int {
	if override > 0 {
		return override
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 4096
}

// explicitMaxTokens is maxTokens without the fallback. Zero means no cap is sent.
func (c Config) explicitMaxTokens(override int) int {
	if override > 0 {
		return override
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 0
}

func (c Config) model(override, fallback string) string {
	if override != "" {
		return override
	}
	if c.Model != "" {
		return c.Model
	}
	return fallback
}
