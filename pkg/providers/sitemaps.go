package providers

import (
	"context"
	"crypto/sha1" //nolint:gosec // article ids only
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// sitemapDocument decodes both a Google News urlset and a plain sitemap index;
// whichever list is populated tells the caller what it fetched.
type sitemapDocument struct {
	URLs     []sitemapURL `xml:"url"`
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

type sitemapURL struct {
	Loc  string `xml:"loc"`
	News struct {
		PublicationDate string `xml:"publication_date"`
		Keywords        string `xml:"keywords"`
		Title           string `xml:"title"`
	} `xml:"news"`
}

func decodeSitemap(data []byte) (sitemapDocument, error) {
	var doc sitemapDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return sitemapDocument{}, fmt.Errorf("decode sitemap: %w", err)
	}
	return doc, nil
}

// nestedSitemaps returns the non-empty child sitemap locations of an index.
func (d sitemapDocument) nestedSitemaps() []string {
	out := make([]string, 0, len(d.Sitemaps))
	for _, s := range d.Sitemaps {
		if loc := strings.TrimSpace(s.Loc); loc != "" {
			out = append(out, loc)
		}
	}
	return out
}

func articleID(u string) string {
	sum := sha1.Sum([]byte(u)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// bodySnippet shortens a response body for error messages.
func bodySnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	switch {
	case s == "":
		return "<empty>"
	case len(s) > maxLen:
		return s[:maxLen] + "..."
	default:
		return s
	}
}

// topicMatcher matches sitemap entries against the words of a topic query.
// "+" and "," separate words as well as spaces, so "Donald+Trump" works.
type topicMatcher []string

func newTopicMatcher(query string) topicMatcher {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return r == ' ' || r == '+' || r == ',' || r == '\t'
	})
}

// Match reports whether any word occurs in the title or keywords. An empty
// query matches everything.
func (m topicMatcher) Match(title string, keywords []string) bool {
	if len(m) == 0 {
		return true
	}
	text := strings.ToLower(title + " " + strings.Join(keywords, " "))
	for _, word := range m {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}

func splitKeywords(raw string) []string {
	var out []string
	for _, kw := range strings.Split(raw, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

var publishedAtLayouts = []string{time.RFC3339, "2006-01-02T15:04:05Z0700", "2006-01-02"}

// parsePublishedAt returns the zero time for missing or unknown formats, which
// sorts such entries last.
func parsePublishedAt(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range publishedAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func getSitemap(ctx context.Context, client HTTPClient, cfg Provider, url string) ([]byte, error) {
	resp, err := client.Get(ctx, url, Headers(cfg))
	if err != nil {
		return nil, fmt.Errorf("fetch %s sitemap %s: %w", cfg.ID, url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s sitemap %s: status %d body: %s", cfg.ID, url, resp.StatusCode(), bodySnippet(resp.Body()))
	}
	return resp.Body(), nil
}
