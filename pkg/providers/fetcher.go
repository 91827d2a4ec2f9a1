package providers

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/newstone/pkg/httpclient"
)

// Registry maps provider types to the fetcher that serves them.
type Registry struct {
	mu     sync.RWMutex
	byType map[string]Fetcher
}

// NewFetcherRegistry registers the given fetchers under their ID.
func NewFetcherRegistry(fetchers ...Fetcher) *Registry {
	r := &Registry{byType: map[string]Fetcher{}}
	for _, f := range fetchers {
		r.Register(f)
	}
	return r
}

// Register adds or replaces the fetcher for f.ID(). Nil is ignored.
func (r *Registry) Register(f Fetcher) {
	if f == nil {
		return
	}
	r.mu.Lock()
	r.byType[normalizeType(f.ID())] = f
	r.mu.Unlock()
}

// FetcherFor returns the fetcher registered for cfg.Type.
func (r *Registry) FetcherFor(cfg Provider) (Fetcher, error) {
	typ := normalizeType(cfg.Type)
	if typ == "" {
		return nil, fmt.Errorf("provider %q has no type", cfg.ID)
	}

	r.mu.RLock()
	f, ok := r.byType[typ]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no fetcher registered for provider type %q", cfg.Type)
	}
	return f, nil
}

func normalizeType(typ string) string {
	return strings.ToLower(strings.TrimSpace(typ))
}

// DefaultHTTPClient is used by fetchers built without a client.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(15 * time.Second) }

// DefaultFetcherRegistry registers every built-in fetcher on client.
func DefaultFetcherRegistry(client HTTPClient) *Registry {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return NewFetcherRegistry(
		NewNewsAPIFetcher(client),
		NewGoogleNewsFetcher(client),
	)
}

// KnownType reports whether a provider type has a built-in fetcher.
func KnownType(typ string) bool {
	switch normalizeType(typ) {
	case ProviderTypeNewsAPI, ProviderTypeGoogleNews:
		return true
	}
	return false
}
