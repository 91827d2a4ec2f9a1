package publishers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// httpPublisher posts events as JSON to a webhook.
type httpPublisher struct {
	id      string
	url     string
	method  string
	headers map[string]string
	client  *resty.Client
	log     Logger
}

func newHTTPPublisher(_ context.Context, cfg SinkConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("sink %q missing http configuration", cfg.ID)
	}

	client := resty.New().
		SetTimeout(time.Duration(cfg.HTTP.TimeoutSeconds)*time.Second).
		SetHeader("Content-Type", "application/json")

	return &httpPublisher{
		id:      cfg.ID,
		url:     cfg.HTTP.URL,
		method:  cfg.HTTP.Method,
		headers: cfg.HTTP.Headers,
		client:  client,
		log:     ensureLogger(log),
	}, nil
}

func (p *httpPublisher) ID() string   { return p.id }
func (p *httpPublisher) Type() string { return TypeHTTP }

// Publish sends the event body and treats any non-2xx answer as a failure.
func (p *httpPublisher) Publish(ctx context.Context, evt Event) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeaders(p.headers).
		SetHeader("X-Event-Type", evt.Type).
		SetBody(evt).
		Execute(p.method, p.url)
	if err != nil {
		return fmt.Errorf("http sink request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("http sink status %d", resp.StatusCode())
	}

	p.log.DebugObj("http sink delivered event", "publisher_http_delivery", map[string]any{
		"status":   resp.StatusCode(),
		"event_id": evt.ID,
	})
	return nil
}
