package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultUserAgent = "newstone/1.0 (+https://github.com/samvad-hq/newstone)"

// Response is the subset of an HTTP response the callers need.
type Response interface {
	StatusCode() int
	Body() []byte
}

// Client performs outbound GET requests.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// Options tunes the resty-backed client.
type Options struct {
	Timeout    time.Duration
	RetryCount int
	UserAgent  string
}

type restyClient struct {
	client *resty.Client
}

// NewRestyClient returns a Client with the given request timeout.
func NewRestyClient(timeout time.Duration) Client {
	return New(Options{Timeout: timeout})
}

// New builds a resty-backed Client.
func New(opts Options) Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	c := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent)
	if opts.RetryCount > 0 {
		c.SetRetryCount(opts.RetryCount).
			SetRetryWaitTime(500 * time.Millisecond).
			SetRetryMaxWaitTime(5 * time.Second)
	}

	return &restyClient{client: c}
}

// Get issues a GET request; non-2xx statuses are returned as responses, not errors.
// Transport errors never carry the query string, which may hold credentials.
func (c *restyClient) Get(ctx context.Context, target string, headers map[string]string) (Response, error) {
	req := c.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}

	resp, err := req.Get(target)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", redactURL(err))
	}
	return resp, nil
}

// redactURL drops the query and user info from the URL inside a *url.Error.
func redactURL(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	if u, perr := url.Parse(uerr.URL); perr == nil {
		u.RawQuery = ""
		u.ForceQuery = false
		u.User = nil
		uerr.URL = u.String()
	} else {
		uerr.URL = "<redacted>"
	}
	return err
}
