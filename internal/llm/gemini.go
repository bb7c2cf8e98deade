package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// geminiProvider generates content through the Google Gemini API.
type geminiProvider struct {
	client     *genai.Client
	model      string
	timeout    time.Duration
	maxRetries int
	log        zerolog.Logger
}

func newGeminiProvider(ctx context.Context, cfg Config, log zerolog.Logger) (*geminiProvider, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required for model %q", cfg.Model)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	model := NormalizeModel(cfg.Model)
	if model == "" {
		model = "gemini-2.0-flash"
	}

	return &geminiProvider{
		client:     client,
		model:      model,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		log:        log.With().Str("component", "llm").Str("provider", "gemini").Logger(),
	}, nil
}

func (p *geminiProvider) GenerateContent(ctx context.Context, req *ContentRequest) (*ContentResponse, error) {
	if len(req.Parts) == 0 {
		return nil, fmt.Errorf("request has no parts")
	}

	parts := make([]*genai.Part, 0, len(req.Parts))
	for _, part := range req.Parts {
		if len(part.Data) > 0 {
			parts = append(parts, genai.NewPartFromBytes(part.Data, part.MIMEType))
			continue
		}
		parts = append(parts, genai.NewPartFromText(part.Text))
	}
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	var resp *genai.GenerateContentResponse
	var apiErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		resp, apiErr = p.client.Models.GenerateContent(callCtx, p.model, contents, config)
		cancel()

		if apiErr == nil || attempt == p.maxRetries {
			break
		}

		p.log.Warn().Err(apiErr).Int("attempt", attempt+1).Msg("Gemini call failed, retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryBackoff(attempt)):
		}
	}
	if apiErr != nil {
		return nil, fmt.Errorf("gemini generation failed after %d retries: %w", p.maxRetries, apiErr)
	}

	var text strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					text.WriteString(part.Text)
				}
			}
			if text.Len() > 0 {
				break
			}
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("empty response from gemini model %s", p.model)
	}

	return &ContentResponse{Text: text.String(), Provider: ProviderGemini, Model: p.model}, nil
}

func (p *geminiProvider) Close() error {
	return nil
}
