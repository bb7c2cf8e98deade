// Package llm abstracts the generative-model providers behind a single
// interface so the collaborator boundaries depend on a plain data contract
// rather than a vendor SDK. Gemini and Claude are supported; the provider
// is selected from the configured model name.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ProviderType identifies the backing model vendor.
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderClaude ProviderType = "claude"
)

// Part is one piece of a request: plain text, or raw document/image bytes
// with a MIME type for inline upload.
type Part struct {
	Text     string
	Data     []byte
	MIMEType string
}

// ContentRequest is a provider-agnostic generation request.
type ContentRequest struct {
	System      string
	Parts       []Part
	Temperature float32
	MaxTokens   int
}

// ContentResponse is the provider-agnostic response.
type ContentResponse struct {
	Text     string
	Provider ProviderType
	Model    string
}

// Provider generates content from a request. Implementations apply their
// own per-call timeout and are safe for concurrent use.
type Provider interface {
	GenerateContent(ctx context.Context, req *ContentRequest) (*ContentResponse, error)
	Close() error
}

// Config holds provider construction settings.
type Config struct {
	Model           string
	GeminiAPIKey    string
	AnthropicAPIKey string
	Timeout         time.Duration
	MaxRetries      int
}

// DetectProvider determines the provider type from a model string.
// "claude/..." or "claude-..." selects Claude, "gemini/..." or "gemini-..."
// selects Gemini. Anything else defaults to Gemini.
func DetectProvider(model string) ProviderType {
	model = strings.ToLower(model)
	if strings.HasPrefix(model, "claude/") || strings.HasPrefix(model, "anthropic/") || strings.HasPrefix(model, "claude-") {
		return ProviderClaude
	}
	return ProviderGemini
}

// NormalizeModel strips a vendor prefix from the model name if present.
func NormalizeModel(model string) string {
	for _, prefix := range []string{"claude/", "anthropic/", "gemini/", "google/"} {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// New constructs the provider matching the configured model name.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (Provider, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	switch DetectProvider(cfg.Model) {
	case ProviderClaude:
		return newClaudeProvider(cfg, log)
	case ProviderGemini:
		return newGeminiProvider(ctx, cfg, log)
	}
	return nil, fmt.Errorf("no provider for model %q", cfg.Model)
}

// retryBackoff returns the sleep before retry attempt n (0-based), capped
// at 10 seconds.
func retryBackoff(attempt int) time.Duration {
	backoff := time.Second * time.Duration(uint(1)<<uint(attempt))
	if backoff > 10*time.Second {
		backoff = 10 * time.Second
	}
	return backoff
}
