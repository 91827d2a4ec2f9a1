// Package pipeline fills the news cache and renders cached articles on read.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/samvad-hq/newstone/internal/domain"
	"github.com/samvad-hq/newstone/internal/logger"
	"github.com/samvad-hq/newstone/internal/newscache"
	"github.com/samvad-hq/newstone/pkg/events"
)

// ErrFetch marks a population that failed at the fetch step.
var ErrFetch = errors.New("fetch articles")

const (
	defaultLimit           = 5
	defaultWorkers         = 4
	defaultPopulateTimeout = 3 * time.Minute
	neutralTone            = "neutral"
	populateKey            = "populate"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// WithLimit caps how many locators are requested per population.
func WithLimit(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.limit = n
		}
	}
}

// WithWorkers bounds concurrent summarize and rewrite calls.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithRequestDelay spaces out summarize calls.
func WithRequestDelay(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.delay = d
		}
	}
}

// WithPopulateTimeout bounds one population run.
func WithPopulateTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.populateTimeout = d
		}
	}
}

// WithPublisher sends a refresh event after each successful population.
func WithPublisher(pub EventPublisher, providerID string) Option {
	return func(p *Pipeline) {
		p.publisher = pub
		p.providerID = providerID
	}
}

// WithClock overrides time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// Pipeline orchestrates fetch, summarize and cache fill, and renders reads.
type Pipeline struct {
	cache       *newscache.Cache
	fetcher     ArticleFetcher
	summarizer  ArticleSummarizer
	transformer ToneTransformer
	topic       string

	limit           int
	workers         int
	delay           time.Duration
	populateTimeout time.Duration
	publisher       EventPublisher
	providerID      string
	now             func() time.Time
	log             logger.Logger

	group singleflight.Group
}

// New builds a Pipeline that owns cache.
func New(
	cache *newscache.Cache,
	topic string,
	fetcher ArticleFetcher,
	summarizer ArticleSummarizer,
	transformer ToneTransformer,
	opts ...Option,
) (*Pipeline, error) {
	if cache == nil {
		return nil, errors.New("pipeline: cache is required")
	}
	if strings.TrimSpace(topic) == "" {
		return nil, errors.New("pipeline: topic is required")
	}
	if fetcher == nil || summarizer == nil || transformer == nil {
		return nil, errors.New("pipeline: fetcher, summarizer and transformer are required")
	}

	p := &Pipeline{
		cache:           cache,
		fetcher:         fetcher,
		summarizer:      summarizer,
		transformer:     transformer,
		topic:           topic,
		limit:           defaultLimit,
		workers:         defaultWorkers,
		populateTimeout: defaultPopulateTimeout,
		now:             time.Now,
		log:             logger.NopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

// Cache returns the cache owned by the pipeline.
func (p *Pipeline) Cache() *newscache.Cache {
	return p.cache
}

// Populate runs one fetch and summarize cycle and swaps the result into the cache.
//
// Concurrent callers share a single run. The run is detached from the
// caller's cancellation and bounded by the populate timeout instead, so one
// abandoned request does not fail the population for the others.
func (p *Pipeline) Populate(ctx context.Context) error {
	return p.runPopulate(ctx, false)
}

// runPopulate starts or joins the in-flight population. With onlyIfEmpty a
// run that finds the cache already filled by a previous run does nothing.
func (p *Pipeline) runPopulate(ctx context.Context, onlyIfEmpty bool) error {
	ch := p.group.DoChan(populateKey, func() (any, error) {
		if onlyIfEmpty && p.cache.IsPopulated() {
			return nil, nil
		}
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.populateTimeout)
		defer cancel()
		return nil, p.populate(runCtx)
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (p *Pipeline) populate(ctx context.Context) error {
	started := p.now()

	locators, err := p.fetcher.FetchLocators(ctx, p.topic, p.limit)
	if err != nil {
		p.cache.Clear()
		p.log.ErrorObj("population failed", "populate_failed", map[string]any{
			"topic": p.topic,
			"error": err.Error(),
		})
		return fmt.Errorf("%w: %w", ErrFetch, err)
	}
	if len(locators) > p.limit {
		locators = locators[:p.limit]
	}

	items := p.summarizeAll(ctx, locators)
	if err := ctx.Err(); err != nil {
		p.cache.Clear()
		p.log.ErrorObj("population timed out", "populate_failed", map[string]any{
			"topic": p.topic,
			"error": err.Error(),
		})
		return fmt.Errorf("populate: %w", err)
	}
	p.cache.Replace(items)

	p.log.InfoObj("news cache populated", "populate_done", map[string]any{
		"topic":       p.topic,
		"fetched":     len(locators),
		"cached":      len(items),
		"duration_ms": time.Since(started).Milliseconds(),
	})

	p.publishRefresh(ctx, items)
	return nil
}

// summarizeAll summarizes locators on a bounded worker pool and keeps fetch order.
// Failed articles are dropped.
func (p *Pipeline) summarizeAll(ctx context.Context, locators []string) []domain.CachedArticle {
	if len(locators) == 0 {
		return nil
	}

	results := make([]*domain.CachedArticle, len(locators))
	workerCount := min(len(locators), p.workers)

	var limiter <-chan time.Time
	if p.delay > 0 {
		ticker := time.NewTicker(p.delay)
		defer ticker.Stop()
		limiter = ticker.C
	}

	jobCh := make(chan int)
	var wg sync.WaitGroup
	for workerID := range workerCount {
		wg.Add(1)
		go p.summaryWorker(ctx, workerID, locators, limiter, jobCh, results, &wg)
	}

feed:
	for idx := range locators {
		select {
		case <-ctx.Done():
			break feed
		case jobCh <- idx:
		}
	}
	close(jobCh)
	wg.Wait()

	out := make([]domain.CachedArticle, 0, len(locators))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func (p *Pipeline) summaryWorker(
	ctx context.Context,
	workerID int,
	locators []string,
	limiter <-chan time.Time,
	jobCh <-chan int,
	results []*domain.CachedArticle,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	for idx := range jobCh {
		if ctx.Err() != nil {
			continue
		}
		if limiter != nil {
			select {
			case <-ctx.Done():
				continue
			case <-limiter:
			}
		}

		loc := locators[idx]
		summary, err := p.summarizer.Summarize(ctx, loc)
		if err != nil {
			p.log.WarnObj("article dropped", "summary_dropped", map[string]any{
				"worker_id": workerID,
				"url":       loc,
				"error":     err.Error(),
			})
			continue
		}
		item := domain.NewCachedArticle(loc, summary)
		results[idx] = &item
	}
}

func (p *Pipeline) publishRefresh(ctx context.Context, items []domain.CachedArticle) {
	if p.publisher == nil {
		return
	}
	evt := events.NewRefreshed(p.topic, p.providerID, items, p.now())
	if err := p.publisher.Publish(ctx, evt); err != nil {
		p.log.WarnObj("refresh event not delivered", "refresh_publish_failed", map[string]any{
			"event_id": evt.ID,
			"error":    err.Error(),
		})
	}
}

// Get returns the cached articles rendered in tone, populating an empty cache first.
//
// Neutral returns the stored summaries without calling the transformer. Any
// other tone rewrites every article; one failed rewrite fails the whole call.
func (p *Pipeline) Get(ctx context.Context, tone string) ([]domain.RenderedArticle, error) {
	if strings.TrimSpace(tone) == "" {
		tone = neutralTone
	}

	if !p.cache.IsPopulated() {
		if err := p.runPopulate(ctx, true); err != nil {
			return nil, err
		}
	}

	items := p.cache.Snapshot()
	out := make([]domain.RenderedArticle, len(items))

	if strings.EqualFold(strings.TrimSpace(tone), neutralTone) {
		for i, item := range items {
			out[i] = item.Render(item.NeutralSummary)
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, item := range items {
		g.Go(func() error {
			text, err := p.transformer.Transform(gctx, item.NeutralSummary, tone)
			if err != nil {
				return fmt.Errorf("render %s: %w", item.Locator, err)
			}
			out[i] = item.Render(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		p.log.WarnObj("tone rewrite failed", "render_failed", map[string]any{
			"tone":  tone,
			"error": err.Error(),
		})
		return nil, err
	}
	return out, nil
}
