package pipeline

import (
	"context"

	"github.com/samvad-hq/newstone/internal/domain"
	"github.com/samvad-hq/newstone/pkg/events"
)

// ArticleFetcher returns article locators for a topic, most recent first.
type ArticleFetcher interface {
	FetchLocators(ctx context.Context, query string, limit int) ([]string, error)
}

// ArticleSummarizer produces metadata and a neutral summary for one locator.
type ArticleSummarizer interface {
	Summarize(ctx context.Context, locator string) (domain.Summary, error)
}

// ToneTransformer rewrites a neutral summary in the requested tone.
type ToneTransformer interface {
	Transform(ctx context.Context, text, tone string) (string, error)
}

// EventPublisher receives a notification after each successful population.
type EventPublisher interface {
	Publish(ctx context.Context, evt events.Event) error
}
