package gemini

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/samvad-hq/newstone/pkg/llm"

	"google.golang.org/genai"
)

const defaultAPIVersion = "v1beta"

// ProviderConfig configures one Gemini-backed generator.
type ProviderConfig struct {
	// APIKey is the credential used to authenticate requests.
	APIKey string
	// BaseURL optionally overrides the Gemini endpoint.
	BaseURL string
	// APIVersion optionally overrides Gemini API version.
	//
	// Zero defaults to v1beta.
	APIVersion string
}

// Provider generates text through the Gemini API.
type Provider struct {
	models modelsClient
}

type modelsClient interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// New builds one Gemini provider instance.
func New(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	normalized, err := normalizeProviderConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("new gemini provider: %w", err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  normalized.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    normalized.BaseURL,
			APIVersion: normalized.APIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("new gemini client: %w", err)
	}
	if client == nil || client.Models == nil {
		return nil, fmt.Errorf("new gemini client: models client is nil")
	}

	return &Provider{models: client.Models}, nil
}

// Generate runs one GenerateContent call and returns the concatenated text parts.
func (p *Provider) Generate(ctx context.Context, req llm.Request) (string, error) {
	if p == nil || p.models == nil {
		return "", fmt.Errorf("gemini generate: models client is nil")
	}
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	contents := []*genai.Content{
		{
			Role:  string(genai.RoleUser),
			Parts: []*genai.Part{{Text: req.Prompt}},
		},
	}

	resp, err := p.models.GenerateContent(ctx, strings.TrimSpace(req.Model), contents, mapConfig(req))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("gemini generate: %w", llm.ErrEmptyOutput)
	}

	text := strings.TrimSpace(responseText(resp))
	if text == "" {
		return "", fmt.Errorf("gemini generate: %w", llm.ErrEmptyOutput)
	}
	return text, nil
}

func mapConfig(req llm.Request) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if system := strings.TrimSpace(req.System); system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}
	if req.Temperature > 0 {
		temperature := float32(req.Temperature)
		config.Temperature = &temperature
	}
	if req.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	return config
}

// responseText joins the non-thought text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

func normalizeProviderConfig(cfg ProviderConfig) (ProviderConfig, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.APIVersion = strings.TrimSpace(cfg.APIVersion)

	if cfg.APIKey == "" {
		return ProviderConfig{}, fmt.Errorf("missing api_key")
	}
	if cfg.BaseURL != "" {
		parsed, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return ProviderConfig{}, fmt.Errorf("parse base_url: %w", err)
		}
		if parsed.Scheme == "" || parsed.Host == "" {
			return ProviderConfig{}, fmt.Errorf("parse base_url: must include scheme and host")
		}
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}

	return cfg, nil
}

var _ llm.Generator = (*Provider)(nil)
