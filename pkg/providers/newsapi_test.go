package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/newstone/pkg/httpclient"
)

func newsAPIServer(t *testing.T, status int, body string, check func(*http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewsAPIFetchKeepsOrderCapsAndDropsMissingURLs(t *testing.T) {
	t.Parallel()

	body := `{"status":"ok","articles":[
		{"title":"first","url":"https://a.com/1","publishedAt":"2025-02-01T10:00:00Z"},
		{"title":"no url"},
		{"title":"third","url":"https://c.com/3"},
		{"title":"fourth","url":"https://d.com/4"}
	]}`
	srv := newsAPIServer(t, http.StatusOK, body, func(r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != "Donald Trump" {
			t.Errorf("q = %q", q.Get("q"))
		}
		if q.Get("sortBy") != "publishedAt" || q.Get("pageSize") != "3" || q.Has("apiKey") {
			t.Errorf("query = %v", q)
		}
		if got := r.Header.Get("X-Api-Key"); got != "secret" {
			t.Errorf("X-Api-Key = %q", got)
		}
		if q.Get("language") != "en" {
			t.Errorf("language = %q", q.Get("language"))
		}
	})

	fetcher := NewNewsAPIFetcher(httpclient.NewRestyClient(time.Second))
	cfg := Provider{ID: "newsapi", Type: ProviderTypeNewsAPI, SourceURL: srv.URL, APIKey: "secret", Language: "en"}

	articles, err := fetcher.Fetch(context.Background(), cfg, "Donald Trump", 3)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("articles = %d, want 2 (cap then drop)", len(articles))
	}
	if articles[0].URL != "https://a.com/1" || articles[1].URL != "https://c.com/3" {
		t.Fatalf("order = %+v", articles)
	}
	if articles[0].PublishedAt.IsZero() {
		t.Fatal("expected parsed publication date")
	}
}

func TestNewsAPIFetchErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		status           int
		body             string
		cfg              Provider
		wantErrSubstring string
	}{
		{name: "non-200", status: http.StatusUnauthorized, body: `{"status":"error"}`, cfg: Provider{ID: "n", APIKey: "k"}, wantErrSubstring: "status 401"},
		{name: "api error", status: http.StatusOK, body: `{"status":"error","code":"apiKeyInvalid","message":"bad key"}`, cfg: Provider{ID: "n", APIKey: "k"}, wantErrSubstring: "apiKeyInvalid"},
		{name: "malformed", status: http.StatusOK, body: `{`, cfg: Provider{ID: "n", APIKey: "k"}, wantErrSubstring: "decode"},
		{name: "missing key", status: http.StatusOK, body: `{}`, cfg: Provider{ID: "n"}, wantErrSubstring: "api_key is empty"},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			srv := newsAPIServer(t, testCase.status, testCase.body, nil)
			cfg := testCase.cfg
			cfg.SourceURL = srv.URL

			_, err := NewNewsAPIFetcher(httpclient.NewRestyClient(time.Second)).Fetch(context.Background(), cfg, "topic", 5)
			if err == nil || !strings.Contains(err.Error(), testCase.wantErrSubstring) {
				t.Fatalf("error = %v, want substring %q", err, testCase.wantErrSubstring)
			}
		})
	}
}

func TestNewsAPITransportErrorOmitsKey(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	cfg := Provider{ID: "newsapi", Type: ProviderTypeNewsAPI, SourceURL: srv.URL + "/v2/everything", APIKey: "SECRET-NEWS-KEY"}
	srv.Close()

	_, err := NewNewsAPIFetcher(httpclient.NewRestyClient(time.Second)).Fetch(context.Background(), cfg, "topic", 5)
	if err == nil {
		t.Fatal("expected transport error")
	}
	if strings.Contains(err.Error(), "SECRET-NEWS-KEY") {
		t.Fatalf("error leaks api key: %v", err)
	}
}
