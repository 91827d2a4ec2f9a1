package openai

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/samvad-hq/newstone/pkg/llm"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

// ProviderConfig configures one OpenAI-backed generator.
type ProviderConfig struct {
	// APIKey is the credential used to authenticate requests.
	APIKey string
	// BaseURL optionally overrides the OpenAI endpoint.
	BaseURL string
	// MaxRetries optionally overrides the SDK retry count.
	//
	// Nil keeps the SDK default behavior.
	MaxRetries *int
}

// Provider generates text through the OpenAI Responses API.
type Provider struct {
	responses responsesClient
}

type responsesClient interface {
	New(ctx context.Context, body responses.ResponseNewParams, opts ...option.RequestOption) (*responses.Response, error)
}

// New builds one OpenAI provider instance.
func New(cfg ProviderConfig) (*Provider, error) {
	normalized, err := normalizeProviderConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("new openai provider: %w", err)
	}

	options := make([]option.RequestOption, 0, 3)
	options = append(options, option.WithAPIKey(normalized.APIKey))
	if normalized.BaseURL != "" {
		options = append(options, option.WithBaseURL(normalized.BaseURL))
	}
	if normalized.MaxRetries != nil {
		options = append(options, option.WithMaxRetries(*normalized.MaxRetries))
	}

	client := openai.NewClient(options...)

	return &Provider{responses: &client.Responses}, nil
}

// Generate sends one non-streaming Responses request and returns its output text.
func (p *Provider) Generate(ctx context.Context, req llm.Request) (string, error) {
	if p == nil || p.responses == nil {
		return "", fmt.Errorf("openai generate: responses client is nil")
	}
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}

	resp, err := p.responses.New(ctx, mapRequest(req))
	if err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("openai generate: %w", llm.ErrEmptyOutput)
	}

	text := strings.TrimSpace(resp.OutputText())
	if text == "" {
		return "", fmt.Errorf("openai generate: %w", llm.ErrEmptyOutput)
	}
	return text, nil
}

func mapRequest(req llm.Request) responses.ResponseNewParams {
	items := make(responses.ResponseInputParam, 0, 2)
	if system := strings.TrimSpace(req.System); system != "" {
		items = append(items, responses.ResponseInputItemParamOfMessage(system, responses.EasyInputMessageRoleSystem))
	}
	items = append(items, responses.ResponseInputItemParamOfMessage(req.Prompt, responses.EasyInputMessageRoleUser))

	params := responses.ResponseNewParams{
		Model: strings.TrimSpace(req.Model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: items,
		},
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxOutputTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(req.MaxOutputTokens))
	}
	return params
}

func normalizeProviderConfig(cfg ProviderConfig) (ProviderConfig, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)

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
	if cfg.MaxRetries != nil && *cfg.MaxRetries < 0 {
		return ProviderConfig{}, fmt.Errorf("max_retries must be >= 0")
	}

	return cfg, nil
}

var _ llm.Generator = (*Provider)(nil)
