package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/samvad-hq/newstone/internal/domain"
)

// NewsAPIEverythingURL is the default newsapi.org search endpoint.
const NewsAPIEverythingURL = "https://newsapi.org/v2/everything"

type newsAPIResponse struct {
	Status   string           `json:"status"`
	Code     string           `json:"code"`
	Message  string           `json:"message"`
	Articles []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

// newsAPIFetcher implements Fetcher against the NewsAPI "everything" search.
type newsAPIFetcher struct {
	client HTTPClient
}

// NewNewsAPIFetcher builds a Fetcher for NewsAPI-compatible search endpoints.
func NewNewsAPIFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &newsAPIFetcher{client: client}
}

// ID returns the provider type served by this fetcher.
func (f *newsAPIFetcher) ID() string {
	return ProviderTypeNewsAPI
}

// Fetch searches for the query sorted by publication time and returns at most limit articles.
func (f *newsAPIFetcher) Fetch(ctx context.Context, cfg Provider, query string, limit int) ([]domain.Article, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("provider %q api_key is empty", cfg.ID)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("newsapi query is empty")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("newsapi limit must be > 0")
	}

	endpoint, err := newsAPIURL(cfg, query, limit)
	if err != nil {
		return nil, err
	}

	headers := Headers(cfg)
	headers["X-Api-Key"] = cfg.APIKey

	resp, err := f.client.Get(ctx, endpoint, headers)
	if err != nil {
		return nil, fmt.Errorf("fetch %s search: %w", cfg.ID, err)
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s search returned status %d body: %s", cfg.ID, resp.StatusCode(), bodySnippet(body))
	}

	var payload newsAPIResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode %s search: %w", cfg.ID, err)
	}
	if !strings.EqualFold(payload.Status, "ok") {
		return nil, fmt.Errorf("%s search failed: %s %s", cfg.ID, payload.Code, payload.Message)
	}

	return buildArticlesFromNewsAPI(payload.Articles, limit), nil
}

// newsAPIURL builds the search URL for the provider.
func newsAPIURL(cfg Provider, query string, limit int) (string, error) {
	base := strings.TrimSpace(cfg.SourceURL)
	if base == "" {
		base = NewsAPIEverythingURL
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse %s source_url: %w", cfg.ID, err)
	}

	q := u.Query()
	q.Set("q", query)
	q.Set("sortBy", "publishedAt")
	q.Set("pageSize", strconv.Itoa(limit))
	if lang := strings.TrimSpace(cfg.Language); lang != "" {
		q.Set("language", lang)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// buildArticlesFromNewsAPI keeps the first limit results and drops those without a URL.
func buildArticlesFromNewsAPI(items []newsAPIArticle, limit int) []domain.Article {
	if len(items) > limit {
		items = items[:limit]
	}

	articles := make([]domain.Article, 0, len(items))
	for _, item := range items {
		loc := strings.TrimSpace(item.URL)
		if loc == "" {
			continue
		}
		articles = append(articles, domain.Article{
			ID:          articleID(loc),
			Title:       strings.TrimSpace(item.Title),
			URL:         loc,
			Description: strings.TrimSpace(item.Description),
			PublishedAt: parsePublishedAt(item.PublishedAt),
		})
	}
	return articles
}
