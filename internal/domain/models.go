package domain

import "time"

// Domain contains core models shared by the fetch, summarize and serve stages.

// Article is a candidate article returned by a news provider.
type Article struct {
	ID          string
	Title       string
	URL         string
	Description string
	Keywords    []string
	PublishedAt time.Time
}

// Summary is what the summarizer produces for one article locator.
type Summary struct {
	Title       string
	Author      string
	PublishDate string
	Text        string
}

// CachedArticle is one summarized article held by the news cache.
// Values are immutable once inserted.
type CachedArticle struct {
	Title          string
	NeutralSummary string
	Locator        string
	Author         string
	PublishDate    string
}

// RenderedArticle is the per-request view of a cached article with the
// requested tone applied. It is never cached.
type RenderedArticle struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	URL         string `json:"url"`
	Author      string `json:"author"`
	PublishDate string `json:"publish_date"`
}

// NewCachedArticle pairs a locator with its summary.
func NewCachedArticle(locator string, s Summary) CachedArticle {
	return CachedArticle{
		Title:          s.Title,
		NeutralSummary: s.Text,
		Locator:        locator,
		Author:         s.Author,
		PublishDate:    s.PublishDate,
	}
}

// Render builds the response view using the given summary text.
func (a CachedArticle) Render(summary string) RenderedArticle {
	return RenderedArticle{
		Title:       a.Title,
		Summary:     summary,
		URL:         a.Locator,
		Author:      a.Author,
		PublishDate: a.PublishDate,
	}
}
