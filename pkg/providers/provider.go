package providers

import (
	"context"
	"strings"
	"time"

	"github.com/samvad-hq/newstone/internal/domain"
	"github.com/samvad-hq/newstone/pkg/httpclient"
)

// Supported provider types.
const (
	ProviderTypeNewsAPI    = "newsapi"
	ProviderTypeGoogleNews = "google-news-sitemap"
)

// HTTPClient is the transport used by fetchers.
type HTTPClient = httpclient.Client

// Provider describes one configured news source.
type Provider struct {
	ID             string            `mapstructure:"id"`
	Type           string            `mapstructure:"type"`
	SourceURL      string            `mapstructure:"source_url"`
	APIKey         string            `mapstructure:"api_key"`
	Language       string            `mapstructure:"language"`
	Headers        map[string]string `mapstructure:"headers"`
	RequestDelayMS int               `mapstructure:"request_delay_ms"`
}

// RequestDelay returns the pause to keep between page requests to this provider.
func (p Provider) RequestDelay() time.Duration {
	if p.RequestDelayMS <= 0 {
		return 0
	}
	return time.Duration(p.RequestDelayMS) * time.Millisecond
}

// Fetcher retrieves candidate articles for a topic, most recent first.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, cfg Provider, query string, limit int) ([]domain.Article, error)
}

// FetcherRegistry resolves the fetcher that serves a provider.
type FetcherRegistry interface {
	FetcherFor(cfg Provider) (Fetcher, error)
}

// Headers returns request headers for the provider with a browser-like Accept default.
func Headers(cfg Provider) map[string]string {
	headers := map[string]string{
		"Accept": "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.8,*/*;q=0.7",
	}
	for k, v := range cfg.Headers {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		headers[key] = val
	}
	return headers
}
