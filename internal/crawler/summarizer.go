package crawler

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/samvad-hq/newstone/internal/domain"
	"github.com/samvad-hq/newstone/internal/logger"
	"github.com/samvad-hq/newstone/pkg/llm"
)

const (
	unknownField         = "Unknown"
	defaultSummaryChars  = 600
	maxPromptSourceChars = 12000
	summarySystemPrompt  = "You summarize news articles. Reply with a short, neutral, factual summary of two to four sentences and nothing else."
)

// PageExtractor fetches and parses a single article page.
type PageExtractor interface {
	Extract(ctx context.Context, url string) (Page, error)
}

// SummarizerOption configures a Summarizer.
type SummarizerOption func(*Summarizer)

// WithGenerator makes the Summarizer write summaries with a language model.
func WithGenerator(gen llm.Generator, model string, maxTokens int) SummarizerOption {
	return func(s *Summarizer) {
		s.gen = gen
		s.model = model
		s.maxTokens = maxTokens
	}
}

// WithSummaryLength caps the extractive summary in characters.
func WithSummaryLength(chars int) SummarizerOption {
	return func(s *Summarizer) {
		if chars > 0 {
			s.maxChars = chars
		}
	}
}

// WithSummarizerLogger sets the logger.
func WithSummarizerLogger(log logger.Logger) SummarizerOption {
	return func(s *Summarizer) {
		if log != nil {
			s.log = log
		}
	}
}

// Summarizer turns an article URL into a neutral summary plus metadata.
type Summarizer struct {
	extractor PageExtractor
	gen       llm.Generator
	model     string
	maxTokens int
	maxChars  int
	log       logger.Logger
}

// NewSummarizer builds a Summarizer over the given page extractor.
func NewSummarizer(extractor PageExtractor, opts ...SummarizerOption) *Summarizer {
	s := &Summarizer{
		extractor: extractor,
		maxChars:  defaultSummaryChars,
		log:       logger.NopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Summarize downloads the article at url and summarizes it.
// Missing title, author and date are reported as "Unknown".
func (s *Summarizer) Summarize(ctx context.Context, url string) (domain.Summary, error) {
	if s.extractor == nil {
		return domain.Summary{}, fmt.Errorf("summarizer has no page extractor")
	}

	page, err := s.extractor.Extract(ctx, url)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("extract %s: %w", url, err)
	}
	if strings.TrimSpace(page.Text) == "" {
		return domain.Summary{}, fmt.Errorf("extract %s: %w", url, ErrNoContent)
	}

	text, err := s.summaryText(ctx, page)
	if err != nil {
		return domain.Summary{}, err
	}

	return domain.Summary{
		Title:       orUnknown(page.Title),
		Author:      orUnknown(page.Author),
		PublishDate: orUnknown(page.PublishDate),
		Text:        text,
	}, nil
}

func (s *Summarizer) summaryText(ctx context.Context, page Page) (string, error) {
	if s.gen == nil {
		return extractive(page.Text, s.maxChars), nil
	}

	source := page.Text
	if r := []rune(source); len(r) > maxPromptSourceChars {
		source = string(r[:maxPromptSourceChars])
	}
	prompt := source
	if page.Title != "" {
		prompt = "Title: " + page.Title + "\n\n" + source
	}

	out, err := s.gen.Generate(ctx, llm.Request{
		Model:           s.model,
		System:          summarySystemPrompt,
		Prompt:          prompt,
		MaxOutputTokens: s.maxTokens,
	})
	if err != nil {
		s.log.WarnObj("llm summary failed", "summary_llm_error", map[string]any{
			"url":   page.URL,
			"error": err.Error(),
		})
		return "", fmt.Errorf("summarize %s: %w", page.URL, err)
	}
	return out, nil
}

// extractive keeps whole leading sentences of text up to maxChars.
func extractive(text string, maxChars int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len([]rune(text)) <= maxChars {
		return text
	}

	var b strings.Builder
	for _, sentence := range splitSentences(text) {
		if b.Len() > 0 && len([]rune(b.String()))+1+len([]rune(sentence)) > maxChars {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(sentence)
	}
	if b.Len() == 0 || len([]rune(b.String())) > maxChars {
		r := []rune(text)
		return strings.TrimRightFunc(string(r[:maxChars]), unicode.IsSpace) + "..."
	}
	return b.String()
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	runes := []rune(text)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && runes[i+1] != ' ' {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return unknownField
	}
	return v
}
