package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrIncomplete marks a response the provider cut off before it finished
var ErrIncomplete = errors.New("incomplete response")

// Provider generates story responses from a model backend
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate returns the model's response to one prompt. A truncated
	// response is returned together with an error wrapping ErrIncomplete.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// GenerateRequest is one prompt sent to a model
type GenerateRequest struct {
	Prompt string

	// System is the system prompt; empty uses the provider config
	System string

	// Model overrides the configured model name
	Model string

	MaxTokens   int
	Temperature float64
}

// GenerateResponse is the model's answer
type GenerateResponse struct {
	Text         string
	Model        string
	FinishReason string
	TokensUsed   int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// System prompt sent with every request
	System string

	// MaxTokens for response generation
	MaxTokens   int
	Temperature float64

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:     60,
		MaxTokens:   1000,
		Temperature: 1.0,
	}
}

func (c Config) resolve(req GenerateRequest, fallbackModel string) (model, system string, maxTokens int, temperature float64) {
	model = firstNonEmpty(req.Model, c.Model, fallbackModel)
	system = firstNonEmpty(req.System, c.System)

	maxTokens = req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 1000
	}

	temperature = req.Temperature
	if temperature == 0 {
		temperature = c.Temperature
	}
	return model, system, maxTokens, temperature
}

// StatusError is a non-2xx answer from a provider API
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsRetryable reports whether a generation failure is worth another attempt:
// truncated output, rate limits, 5xx answers and transient network errors.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrIncomplete) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	if code := statusCode(err); code != 0 {
		return code == http.StatusTooManyRequests || code >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset") ||
		strings.Contains(s, "eof")
}

func statusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func incomplete(provider, reason string) error {
	return fmt.Errorf("%s: %w (%s)", provider, ErrIncomplete, reason)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
