// Package events defines the payloads announced to downstream sinks.
//
// It carries no transport code so that producers can build events without
// linking any sink SDK.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/samvad-hq/newstone/internal/domain"
)

// NewsRefreshed is emitted after the news cache is repopulated.
const NewsRefreshed = "news.refreshed"

// Event is the payload delivered to every sink.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Topic      string    `json:"topic"`
	ProviderID string    `json:"provider_id"`
	Count      int       `json:"article_count"`
	Articles   []Article `json:"articles"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Article identifies one cached article inside an Event.
type Article struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// NewRefreshed builds a news.refreshed event for a freshly populated cache.
func NewRefreshed(topic, providerID string, articles []domain.CachedArticle, at time.Time) Event {
	items := make([]Article, 0, len(articles))
	for _, a := range articles {
		items = append(items, Article{Title: a.Title, URL: a.Locator})
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       NewsRefreshed,
		Topic:      topic,
		ProviderID: providerID,
		Count:      len(items),
		Articles:   items,
		OccurredAt: at.UTC(),
	}
}
