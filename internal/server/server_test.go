package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/newstone/internal/domain"
	"github.com/samvad-hq/newstone/internal/factcheck"
	"github.com/samvad-hq/newstone/internal/newscache"
	"github.com/samvad-hq/newstone/internal/pipeline"
	"github.com/samvad-hq/newstone/pkg/httpclient"
	"github.com/samvad-hq/newstone/pkg/providers"
)

type stubNews struct {
	news     []domain.RenderedArticle
	err      error
	gotTone  string
	panicMsg string
}

func (s *stubNews) Get(_ context.Context, tone string) ([]domain.RenderedArticle, error) {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	s.gotTone = tone
	return s.news, s.err
}

type stubChecker struct {
	verdicts []factcheck.Verdict
	claim    string
}

func (s *stubChecker) Check(_ context.Context, claim string) []factcheck.Verdict {
	s.claim = claim
	return s.verdicts
}

type stubMemes struct {
	err error
}

func (s stubMemes) RenderJPEG(w io.Writer, text string) error {
	if s.err != nil {
		return s.err
	}
	_, err := w.Write([]byte("\xff\xd8" + text))
	return err
}

type fixedLen int

func (n fixedLen) Len() int { return int(n) }

func newServer(t *testing.T, deps Deps) *Server {
	t.Helper()
	s, err := New(deps)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func do(t *testing.T, h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewsRoute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		target   string
		news     *stubNews
		wantTone string
		wantBody string
	}{
		{
			name:     "default tone",
			target:   "/news",
			news:     &stubNews{news: []domain.RenderedArticle{{Title: "T", Summary: "S", URL: "u", Author: "A", PublishDate: "D"}}},
			wantTone: "neutral",
			wantBody: `{"news":[{"title":"T","summary":"S","url":"u","author":"A","publish_date":"D"}]}`,
		},
		{
			name:     "explicit tone",
			target:   "/news?tone=satirical",
			news:     &stubNews{},
			wantTone: "satirical",
			wantBody: `{"news":[]}`,
		},
		{
			name:     "error is reported with status 200",
			target:   "/news?tone=formal",
			news:     &stubNews{err: errors.New("fetch articles: upstream 500")},
			wantTone: "formal",
			wantBody: `{"error":"fetch articles: upstream 500"}`,
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			s := newServer(t, Deps{News: testCase.news})
			rec := do(t, s, http.MethodGet, testCase.target, nil)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != testCase.wantBody {
				t.Fatalf("body = %s, want %s", got, testCase.wantBody)
			}
			if testCase.news.gotTone != testCase.wantTone {
				t.Fatalf("tone = %q, want %q", testCase.news.gotTone, testCase.wantTone)
			}
		})
	}
}

func TestSecurityAndCORSHeaders(t *testing.T) {
	t.Parallel()

	s := newServer(t, Deps{News: &stubNews{}})

	rec := do(t, s, http.MethodGet, "/news", nil)
	if got := rec.Header().Get("Content-Security-Policy"); got != "script-src 'self' 'unsafe-inline' 'unsafe-eval' data:" {
		t.Fatalf("csp = %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("allow-origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
	if rec.Header().Get("Access-Control-Expose-Headers") != "Content-Security-Policy" {
		t.Fatalf("expose = %q", rec.Header().Get("Access-Control-Expose-Headers"))
	}

	preflight := do(t, s, http.MethodOptions, "/news", http.Header{
		"Origin":                         {"https://app.example.com"},
		"Access-Control-Request-Method":  {"GET"},
		"Access-Control-Request-Headers": {"X-Custom"},
	})
	if preflight.Code != http.StatusOK {
		t.Fatalf("preflight status = %d", preflight.Code)
	}
	h := preflight.Header()
	if h.Get("Access-Control-Allow-Origin") != "https://app.example.com" || h.Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("preflight origin headers = %v", h)
	}
	if h.Get("Access-Control-Allow-Headers") != "X-Custom" || !strings.Contains(h.Get("Access-Control-Allow-Methods"), "GET") {
		t.Fatalf("preflight allow headers = %v", h)
	}
}

func TestFactCheckRoute(t *testing.T) {
	t.Parallel()

	checker := &stubChecker{verdicts: []factcheck.Verdict{{Verdict: "False", Source: "PolitiFact", URL: "u"}}}
	s := newServer(t, Deps{News: &stubNews{}, FactCheck: checker})

	rec := do(t, s, http.MethodGet, "/fact-check?claim=the+moon+is+cheese", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"claims":[{"verdict":"False","source":"PolitiFact","url":"u"}]}` {
		t.Fatalf("body = %s", got)
	}
	if checker.claim != "the moon is cheese" {
		t.Fatalf("claim = %q", checker.claim)
	}

	empty := &stubChecker{}
	s = newServer(t, Deps{News: &stubNews{}, FactCheck: empty})
	if got := strings.TrimSpace(do(t, s, http.MethodGet, "/fact-check?claim=x", nil).Body.String()); got != `{"claims":[]}` {
		t.Fatalf("empty body = %s", got)
	}

	missing := do(t, s, http.MethodGet, "/fact-check", nil)
	if missing.Code != http.StatusBadRequest {
		t.Fatalf("missing claim status = %d", missing.Code)
	}
}

func TestMemeRoute(t *testing.T) {
	t.Parallel()

	s := newServer(t, Deps{News: &stubNews{}, Memes: stubMemes{}})
	rec := do(t, s, http.MethodGet, "/meme?text=hello", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/jpeg" {
		t.Fatalf("status = %d content-type = %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if rec.Body.String() != "\xff\xd8hello" {
		t.Fatalf("body = %q", rec.Body.String())
	}

	s = newServer(t, Deps{News: &stubNews{}, Memes: stubMemes{err: errors.New("bad font")}})
	failed := do(t, s, http.MethodGet, "/meme?text=hello", nil)
	if failed.Code != http.StatusInternalServerError || !strings.Contains(failed.Body.String(), "bad font") {
		t.Fatalf("failure = %d %s", failed.Code, failed.Body.String())
	}

	s = newServer(t, Deps{News: &stubNews{}})
	if rec := do(t, s, http.MethodGet, "/meme?text=x", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("disabled meme route status = %d", rec.Code)
	}
}

func TestHealthAndRecovery(t *testing.T) {
	t.Parallel()

	s := newServer(t, Deps{News: &stubNews{panicMsg: "boom"}, Cache: fixedLen(3)})

	health := do(t, s, http.MethodGet, "/healthz", nil)
	var body healthResponse
	if err := json.Unmarshal(health.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if body.Status != "ok" || body.CachedArticles != 3 {
		t.Fatalf("health = %+v", body)
	}

	rec := do(t, s, http.MethodGet, "/news", nil)
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), `"error"`) {
		t.Fatalf("panic response = %d %s", rec.Code, rec.Body.String())
	}
}

type fetcherFunc func(ctx context.Context, query string, limit int) ([]string, error)

func (f fetcherFunc) FetchLocators(ctx context.Context, query string, limit int) ([]string, error) {
	return f(ctx, query, limit)
}

type summaries map[string]domain.Summary

func (m summaries) Summarize(_ context.Context, loc string) (domain.Summary, error) {
	return m[loc], nil
}

type identityTone struct{}

func (identityTone) Transform(_ context.Context, text, _ string) (string, error) { return text, nil }

func TestNewsEndToEndThroughPipeline(t *testing.T) {
	t.Parallel()

	cache := newscache.New()
	p, err := pipeline.New(cache, "Donald Trump",
		fetcherFunc(func(context.Context, string, int) ([]string, error) {
			return []string{"a.com", "b.com"}, nil
		}),
		summaries{
			"a.com": {Title: "T1", Author: "A1", PublishDate: "D1", Text: "S1"},
			"b.com": {Title: "T2", Author: "A2", PublishDate: "D2", Text: "S2"},
		},
		identityTone{},
	)
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}

	srv := httptest.NewServer(newServer(t, Deps{News: p, Cache: cache}))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/news?tone=neutral")
	if err != nil {
		t.Fatalf("GET /news: %v", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	want := `{"news":[{"title":"T1","summary":"S1","url":"a.com","author":"A1","publish_date":"D1"},{"title":"T2","summary":"S2","url":"b.com","author":"A2","publish_date":"D2"}]}`
	if got := strings.TrimSpace(string(raw)); got != want {
		t.Fatalf("body = %s\nwant  %s", got, want)
	}
	if cache.Len() != 2 {
		t.Fatalf("cache len = %d", cache.Len())
	}
}

func TestUpstreamFailuresDoNotExposeAPIKeys(t *testing.T) {
	t.Parallel()

	down := httptest.NewServer(http.NotFoundHandler())
	base := down.URL
	down.Close()

	client := httpclient.NewRestyClient(time.Second)
	source, err := providers.NewTopicSource(providers.DefaultFetcherRegistry(client), providers.Provider{
		ID:        "newsapi",
		Type:      providers.ProviderTypeNewsAPI,
		SourceURL: base + "/v2/everything",
		APIKey:    "SECRET-NEWS-KEY",
	})
	if err != nil {
		t.Fatalf("topic source: %v", err)
	}
	p, err := pipeline.New(newscache.New(), "Donald Trump", source, summaries{}, identityTone{})
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	checker := factcheck.New(client, base+"/search", "SECRET-FC-KEY", nil)

	h := newServer(t, Deps{News: p, Cache: p.Cache(), FactCheck: checker})

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{name: "news", target: "/news", want: `"error"`},
		{name: "fact check", target: "/fact-check?claim=x", want: `"error"`},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			body := do(t, h, http.MethodGet, testCase.target, nil).Body.String()
			if !strings.Contains(body, testCase.want) {
				t.Fatalf("body = %s, want an error payload", body)
			}
			for _, secret := range []string{"SECRET-NEWS-KEY", "SECRET-FC-KEY"} {
				if strings.Contains(body, secret) {
					t.Fatalf("body leaks %s: %s", secret, body)
				}
			}
		})
	}
}
