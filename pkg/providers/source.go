package providers

import (
	"context"
	"fmt"
	"strings"
)

// TopicSource adapts one configured provider to a locator source for a topic.
type TopicSource struct {
	registry FetcherRegistry
	cfg      Provider
}

// NewTopicSource binds a provider config to the registry that serves it.
func NewTopicSource(registry FetcherRegistry, cfg Provider) (*TopicSource, error) {
	if registry == nil {
		registry = DefaultFetcherRegistry(nil)
	}
	if _, err := registry.FetcherFor(cfg); err != nil {
		return nil, err
	}
	return &TopicSource{registry: registry, cfg: cfg}, nil
}

// ProviderID returns the id of the bound provider.
func (s *TopicSource) ProviderID() string {
	return s.cfg.ID
}

// FetchLocators returns up to limit distinct article URLs for query in the order
// the provider ranked them.
func (s *TopicSource) FetchLocators(ctx context.Context, query string, limit int) ([]string, error) {
	fetcher, err := s.registry.FetcherFor(s.cfg)
	if err != nil {
		return nil, err
	}

	articles, err := fetcher.Fetch(ctx, s.cfg, query, limit)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", s.cfg.ID, err)
	}

	seen := make(map[string]struct{}, len(articles))
	locators := make([]string, 0, len(articles))
	for _, a := range articles {
		loc := strings.TrimSpace(a.URL)
		if loc == "" {
			continue
		}
		if _, dup := seen[loc]; dup {
			continue
		}
		seen[loc] = struct{}{}
		locators = append(locators, loc)
		if limit > 0 && len(locators) == limit {
			break
		}
	}
	return locators, nil
}
