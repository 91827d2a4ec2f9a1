package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/samvad-hq/newstone/internal/logger"
	"github.com/samvad-hq/newstone/pkg/httpclient"
	"github.com/samvad-hq/newstone/pkg/providers"

	"github.com/PuerkitoBio/goquery"
)

const maxHTMLBodyBytes = 1 << 20 // 1 MiB

// ErrNoContent is returned when an article page has no readable body text.
var ErrNoContent = errors.New("article has no readable content")

// Page is the metadata and body text extracted from one article page.
type Page struct {
	URL         string
	Title       string
	Author      string
	PublishDate string
	Text        string
}

// Scraper fetches article pages and extracts their metadata and body text.
type Scraper struct {
	client  httpclient.Client
	log     logger.Logger
	headers map[string]string
}

// NewScraper creates a new Scraper with the given HTTP client and logger.
func NewScraper(client httpclient.Client, log logger.Logger) *Scraper {
	if client == nil {
		client = providers.DefaultHTTPClient()
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Scraper{client: client, log: log, headers: providers.Headers(providers.Provider{})}
}

// Extract fetches the page at url and parses it.
func (s *Scraper) Extract(ctx context.Context, url string) (Page, error) {
	s.log.DebugObj("scraping article", "scrape_start", map[string]any{
		"url": url,
	})

	resp, err := s.client.Get(ctx, url, s.headers)
	if err != nil {
		return Page{}, fmt.Errorf("http fetch: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		snippet := strings.TrimSpace(string(resp.Body()))
		if len(snippet) > 1024 {
			snippet = snippet[:1024]
		}
		return Page{}, fmt.Errorf("status %d body: %s", resp.StatusCode(), snippet)
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		s.log.InfoObj("html body truncated", "truncation", map[string]any{
			"url":      url,
			"original": len(body),
			"kept":     maxHTMLBodyBytes,
		})
		body = body[:maxHTMLBodyBytes]
	}

	page, err := parsePage(body)
	if err != nil {
		return Page{}, err
	}
	page.URL = url
	return page, nil
}

// parsePage extracts page metadata and body text from the HTML body.
func parsePage(body []byte) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}
	attr := func(sel, name string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr(name); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	page := Page{}
	page.Title = firstNonEmpty(
		extract(`meta[property="og:title"]`),
		strings.TrimSpace(doc.Find("title").First().Text()),
		strings.TrimSpace(doc.Find("h1").First().Text()),
	)
	page.Author = firstNonEmpty(
		extract(`meta[name="author"]`),
		extract(`meta[property="article:author"]`),
		strings.TrimSpace(doc.Find(`[rel="author"]`).First().Text()),
		strings.TrimSpace(doc.Find(`[itemprop="author"]`).First().Text()),
	)
	page.PublishDate = normalizeDate(firstNonEmpty(
		extract(`meta[property="article:published_time"]`),
		extract(`meta[name="pubdate"]`),
		extract(`meta[name="date"]`),
		attr("time[datetime]", "datetime"),
	))
	page.Text = bodyText(doc)

	return page, nil
}

// bodyText joins paragraphs inside <article>, falling back to every paragraph on the page.
func bodyText(doc *goquery.Document) string {
	collect := func(sel *goquery.Selection) string {
		parts := make([]string, 0, sel.Length())
		sel.Each(func(_ int, p *goquery.Selection) {
			if txt := strings.Join(strings.Fields(p.Text()), " "); txt != "" {
				parts = append(parts, txt)
			}
		})
		return strings.Join(parts, "\n\n")
	}

	if text := collect(doc.Find("article p")); text != "" {
		return text
	}
	return collect(doc.Find("p"))
}

// normalizeDate rewrites parseable timestamps as RFC 3339 and keeps anything else verbatim.
func normalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z0700", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return raw
}

// firstNonEmpty returns the first non-empty string from the given values.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
