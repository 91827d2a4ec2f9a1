// Package factcheck looks up published fact-check verdicts for a claim.
package factcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/samvad-hq/newstone/internal/logger"
	"github.com/samvad-hq/newstone/pkg/httpclient"
)

// DefaultEndpoint is the Google Fact Check Tools claim search endpoint.
const DefaultEndpoint = "https://factchecktools.googleapis.com/v1alpha1/claims:search"

const (
	maxQueryRunes = 50
	unknown       = "Unknown"
)

// Verdict is one normalized review. Error is set only on the single record
// returned when the lookup itself failed.
type Verdict struct {
	Verdict string `json:"verdict,omitempty"`
	Source  string `json:"source,omitempty"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

type searchResponse struct {
	Claims []struct {
		Text        string `json:"text"`
		ClaimReview []struct {
			URL           string `json:"url"`
			TextualRating string `json:"textualRating"`
			Publisher     *struct {
				Name string `json:"name"`
			} `json:"publisher"`
		} `json:"claimReview"`
	} `json:"claims"`
}

// Checker queries the claim search service.
type Checker struct {
	client   httpclient.Client
	endpoint string
	apiKey   string
	log      logger.Logger
}

// New returns a Checker. An empty endpoint selects DefaultEndpoint.
func New(client httpclient.Client, endpoint, apiKey string, log logger.Logger) *Checker {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Checker{client: client, endpoint: endpoint, apiKey: apiKey, log: log}
}

// Check searches for reviews of claim. Only the first 50 characters of the
// claim are sent. Claims without reviews are left out; missing review
// fields read "Unknown". Any failure is reported as a single Verdict with
// Error set rather than as an error value.
func (c *Checker) Check(ctx context.Context, claim string) []Verdict {
	verdicts, err := c.search(ctx, claim)
	if err != nil {
		c.log.WarnObj("fact check failed", "factcheck_failed", map[string]any{
			"error": err.Error(),
		})
		return []Verdict{{Error: err.Error()}}
	}
	return verdicts
}

func (c *Checker) search(ctx context.Context, claim string) ([]Verdict, error) {
	if c.client == nil {
		return nil, fmt.Errorf("fact check client is not configured")
	}

	q := url.Values{}
	q.Set("query", truncate(claim, maxQueryRunes))
	target := c.endpoint + "?" + q.Encode()

	headers := map[string]string{"Accept": "application/json"}
	if c.apiKey != "" {
		headers["X-Goog-Api-Key"] = c.apiKey
	}

	resp, err := c.client.Get(ctx, target, headers)
	if err != nil {
		return nil, fmt.Errorf("claim search request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("claim search status %d", resp.StatusCode())
	}

	var payload searchResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("decode claim search response: %w", err)
	}

	out := make([]Verdict, 0, len(payload.Claims))
	for _, cl := range payload.Claims {
		if len(cl.ClaimReview) == 0 {
			continue
		}
		review := cl.ClaimReview[0]
		v := Verdict{
			Verdict: orUnknown(review.TextualRating),
			Source:  unknown,
			URL:     orUnknown(review.URL),
		}
		if review.Publisher != nil {
			v.Source = orUnknown(review.Publisher.Name)
		}
		out = append(out, v)
	}
	return out, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orUnknown(v string) string {
	if v == "" {
		return unknown
	}
	return v
}
