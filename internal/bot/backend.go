package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/samvad-hq/newstone/internal/domain"
	"github.com/samvad-hq/newstone/pkg/httpclient"
)

// Backend calls the news service HTTP API.
type Backend struct {
	client  httpclient.Client
	baseURL string
}

// NewBackend returns a Backend for the service at baseURL.
func NewBackend(client httpclient.Client, baseURL string) *Backend {
	return &Backend{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

type newsPayload struct {
	News  []domain.RenderedArticle `json:"news"`
	Error string                   `json:"error"`
}

// News fetches the digest rendered in tone. An {"error": ...} answer is returned as an error.
func (b *Backend) News(ctx context.Context, tone string) ([]domain.RenderedArticle, error) {
	target := b.baseURL + "/news?" + url.Values{"tone": {tone}}.Encode()
	resp, err := b.client.Get(ctx, target, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, fmt.Errorf("news request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("news request: status %d", resp.StatusCode())
	}

	var payload newsPayload
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("decode news: %w", err)
	}
	if payload.Error != "" {
		return nil, errors.New(payload.Error)
	}
	return payload.News, nil
}

// Meme fetches a captioned JPEG.
func (b *Backend) Meme(ctx context.Context, text string) ([]byte, error) {
	target := b.baseURL + "/meme?" + url.Values{"text": {text}}.Encode()
	resp, err := b.client.Get(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("meme request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(resp.Body(), &payload) == nil && payload.Error != "" {
			return nil, errors.New(payload.Error)
		}
		return nil, fmt.Errorf("meme request: status %d", resp.StatusCode())
	}
	return resp.Body(), nil
}
