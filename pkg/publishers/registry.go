package publishers

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Builder creates a Publisher from one sink definition.
type Builder func(ctx context.Context, cfg SinkConfig, log Logger) (Publisher, error)

// Builders maps sink types to their constructors.
type Builders struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewBuilders returns a builder table with the given entries.
func NewBuilders(entries map[string]Builder) *Builders {
	b := &Builders{builders: make(map[string]Builder, len(entries))}
	for typ, fn := range entries {
		b.Register(typ, fn)
	}
	return b
}

// DefaultBuilders knows the http and queue sink types.
func DefaultBuilders() *Builders {
	return NewBuilders(map[string]Builder{
		TypeHTTP:  newHTTPPublisher,
		TypeQueue: newQueuePublisher,
	})
}

// Register associates a builder with a sink type.
func (b *Builders) Register(typ string, fn Builder) {
	if typ = strings.ToLower(strings.TrimSpace(typ)); typ == "" || fn == nil {
		return
	}
	b.mu.Lock()
	b.builders[typ] = fn
	b.mu.Unlock()
}

// Build constructs the publisher for one sink definition.
func (b *Builders) Build(ctx context.Context, cfg SinkConfig, log Logger) (Publisher, error) {
	b.mu.RLock()
	fn := b.builders[strings.ToLower(cfg.Type)]
	b.mu.RUnlock()

	if fn == nil {
		return nil, fmt.Errorf("no sink builder registered for type %q", cfg.Type)
	}
	return fn(ctx, cfg, log)
}

// BuildFanout constructs every enabled sink in reg and wraps them in a Fanout.
// Sinks already built are closed when a later one fails.
func BuildFanout(ctx context.Context, b *Builders, reg *ConfigRegistry, log Logger) (*Fanout, error) {
	log = ensureLogger(log)
	if b == nil {
		b = DefaultBuilders()
	}

	var pubs []Publisher
	for _, cfg := range reg.Enabled() {
		pub, err := b.Build(ctx, cfg, log)
		if err != nil {
			_ = NewFanout(pubs, log).Close()
			return nil, err
		}
		pubs = append(pubs, pub)
	}

	log.InfoObj("event sinks ready", "publishers_ready", map[string]any{
		"count": len(pubs),
	})
	return NewFanout(pubs, log), nil
}
