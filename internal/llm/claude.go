package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
)

// claudeProvider generates content through the Anthropic Claude API.
type claudeProvider struct {
	client     anthropic.Client
	model      string
	timeout    time.Duration
	maxRetries int
	log        zerolog.Logger
}

func newClaudeProvider(cfg Config, log zerolog.Logger) (*claudeProvider, error) {
	if cfg.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for model %q", cfg.Model)
	}

	model := NormalizeModel(cfg.Model)
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	return &claudeProvider{
		client:     anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey)),
		model:      model,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		log:        log.With().Str("component", "llm").Str("provider", "claude").Logger(),
	}, nil
}

func (p *claudeProvider) GenerateContent(ctx context.Context, req *ContentRequest) (*ContentResponse, error) {
	if len(req.Parts) == 0 {
		return nil, fmt.Errorf("request has no parts")
	}

	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(req.Parts))
	for _, part := range req.Parts {
		if len(part.Data) > 0 {
			if strings.HasPrefix(part.MIMEType, "image/") {
				blocks = append(blocks, anthropic.NewImageBlockBase64(part.MIMEType, base64.StdEncoding.EncodeToString(part.Data)))
				continue
			}
			// Non-image documents are passed through as text.
			blocks = append(blocks, anthropic.NewTextBlock(string(part.Data)))
			continue
		}
		blocks = append(blocks, anthropic.NewTextBlock(part.Text))
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(maxTokens),
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(req.Temperature))
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	var resp *anthropic.Message
	var apiErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		resp, apiErr = p.client.Messages.New(callCtx, params)
		cancel()

		if apiErr == nil || attempt == p.maxRetries {
			break
		}

		p.log.Warn().Err(apiErr).Int("attempt", attempt+1).Msg("Claude call failed, retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryBackoff(attempt)):
		}
	}
	if apiErr != nil {
		return nil, fmt.Errorf("claude generation failed after %d retries: %w", p.maxRetries, apiErr)
	}

	text := claudeMessageText(resp)
	if text == "" {
		return nil, fmt.Errorf("empty response from claude model %s", p.model)
	}

	return &ContentResponse{Text: text, Provider: ProviderClaude, Model: p.model}, nil
}

// claudeMessageText concatenates the text blocks of a response, skipping
// tool-use and thinking blocks.
func claudeMessageText(msg *anthropic.Message) string {
	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String()
}

func (p *claudeProvider) Close() error {
	return nil
}
