// Package app assembles the service from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/newstone/internal/config"
	"github.com/samvad-hq/newstone/internal/crawler"
	"github.com/samvad-hq/newstone/internal/factcheck"
	"github.com/samvad-hq/newstone/internal/logger"
	"github.com/samvad-hq/newstone/internal/meme"
	"github.com/samvad-hq/newstone/internal/newscache"
	"github.com/samvad-hq/newstone/internal/pipeline"
	"github.com/samvad-hq/newstone/internal/tone"
	"github.com/samvad-hq/newstone/pkg/httpclient"
	"github.com/samvad-hq/newstone/pkg/providers"
	"github.com/samvad-hq/newstone/pkg/publishers"
)

// App holds the long-lived collaborators of the HTTP service.
type App struct {
	Cache     *newscache.Cache
	Pipeline  *pipeline.Pipeline
	FactCheck *factcheck.Checker
	Memes     *meme.Generator
	sinks     *publishers.Fanout
}

// New builds every collaborator described by cfg.
func New(ctx context.Context, cfg config.Config, log logger.Logger) (*App, error) {
	if log == nil {
		log = logger.NopLogger{}
	}

	client := httpclient.New(httpclient.Options{
		Timeout:    cfg.HTTP.Timeout,
		RetryCount: cfg.HTTP.RetryCount,
		UserAgent:  cfg.HTTP.UserAgent,
	})

	source, err := providers.NewTopicSource(providers.DefaultFetcherRegistry(client), cfg.News.Provider)
	if err != nil {
		return nil, fmt.Errorf("news source: %w", err)
	}

	gen, llmCfg, err := BuildGenerator(ctx, cfg.LLMSettings())
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}

	summarizerOpts := []crawler.SummarizerOption{
		crawler.WithSummaryLength(cfg.Summarizer.SummaryChars),
		crawler.WithSummarizerLogger(log),
	}
	if gen != nil {
		summarizerOpts = append(summarizerOpts, crawler.WithGenerator(gen, llmCfg.Model, cfg.Summarizer.MaxOutputTokens))
	} else {
		log.WarnObj("no llm configured, using extractive summaries and neutral tone only", "llm_disabled", nil)
	}
	summarizer := crawler.NewSummarizer(crawler.NewScraper(client, log), summarizerOpts...)

	transformer := tone.New(gen, tone.Config{
		Model:           llmCfg.Model,
		MaxOutputTokens: cfg.Tone.MaxOutputTokens,
		Temperature:     llmCfg.Temperature,
		Timeout:         cfg.Tone.Timeout,
	})

	a := &App{Cache: newscache.New()}

	opts := []pipeline.Option{
		pipeline.WithLogger(log),
		pipeline.WithLimit(cfg.News.Limit),
		pipeline.WithWorkers(cfg.News.Workers),
		pipeline.WithRequestDelay(cfg.News.Provider.RequestDelay()),
		pipeline.WithPopulateTimeout(cfg.News.PopulateTimeout),
	}
	if cfg.Publishers.File != "" {
		reg, err := publishers.LoadRegistry(cfg.Publishers.File)
		if err != nil {
			return nil, fmt.Errorf("event sinks: %w", err)
		}
		a.sinks, err = publishers.BuildFanout(ctx, nil, reg, log)
		if err != nil {
			return nil, fmt.Errorf("event sinks: %w", err)
		}
		opts = append(opts, pipeline.WithPublisher(a.sinks, source.ProviderID()))
	}

	a.Pipeline, err = pipeline.New(a.Cache, cfg.News.Topic, source, summarizer, transformer, opts...)
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}

	a.FactCheck = factcheck.New(client, cfg.FactCheck.Endpoint, cfg.FactCheck.APIKey, log)

	a.Memes, err = meme.New(meme.Options{
		BaseImagePath: cfg.Meme.BaseImage,
		FontPath:      cfg.Meme.FontPath,
		FontSize:      cfg.Meme.FontSize,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("meme: %w", err), a.Close())
	}
	return a, nil
}

// Close releases event sink connections.
func (a *App) Close() error {
	if a == nil || a.sinks == nil {
		return nil
	}
	return a.sinks.Close()
}
