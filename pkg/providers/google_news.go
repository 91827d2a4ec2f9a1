package providers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/samvad-hq/newstone/internal/domain"
)

// maxSitemapDepth bounds how many index levels are followed below the source URL.
const maxSitemapDepth = 3

type googleNewsFetcher struct {
	client HTTPClient
}

// NewGoogleNewsFetcher builds a Fetcher that searches a Google News sitemap
// (or an index of them) for a topic.
func NewGoogleNewsFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &googleNewsFetcher{client: client}
}

func (f *googleNewsFetcher) ID() string {
	return ProviderTypeGoogleNews
}

// Fetch returns up to limit entries whose title or keywords mention the
// query, newest first.
func (f *googleNewsFetcher) Fetch(ctx context.Context, cfg Provider, query string, limit int) ([]domain.Article, error) {
	if strings.TrimSpace(cfg.SourceURL) == "" {
		return nil, fmt.Errorf("provider %q source_url is empty", cfg.ID)
	}

	entries, err := f.collect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	match := newTopicMatcher(query)
	articles := make([]domain.Article, 0, len(entries))
	for _, e := range entries {
		loc := strings.TrimSpace(e.Loc)
		title := strings.TrimSpace(e.News.Title)
		keywords := splitKeywords(e.News.Keywords)
		if loc == "" || !match.Match(title, keywords) {
			continue
		}
		articles = append(articles, domain.Article{
			ID:          articleID(loc),
			Title:       title,
			URL:         loc,
			Keywords:    keywords,
			PublishedAt: parsePublishedAt(e.News.PublicationDate),
		})
	}
	if len(articles) == 0 {
		return nil, fmt.Errorf("%s sitemap has no entries for %q", cfg.ID, query)
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, nil
}

// collect walks the sitemap tree breadth first, visiting each URL once.
func (f *googleNewsFetcher) collect(ctx context.Context, cfg Provider) ([]sitemapURL, error) {
	type pending struct {
		url   string
		depth int
	}

	queue := []pending{{url: cfg.SourceURL}}
	visited := map[string]bool{}
	var entries []sitemapURL

	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if visited[next.url] || next.depth > maxSitemapDepth {
			continue
		}
		visited[next.url] = true

		raw, err := getSitemap(ctx, f.client, cfg, next.url)
		if err != nil {
			return nil, err
		}
		doc, err := decodeSitemap(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", next.url, err)
		}

		entries = append(entries, doc.URLs...)
		for _, child := range doc.nestedSitemaps() {
			queue = append(queue, pending{url: child, depth: next.depth + 1})
		}
	}
	return entries, nil
}
