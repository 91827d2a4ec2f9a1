package factcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/newstone/pkg/httpclient"
)

func checkerFor(t *testing.T, status int, body string, seen chan<- string) *Checker {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			seen <- r.URL.Query().Get("query") + "|" + r.Header.Get("X-Goog-Api-Key") + "|" + r.URL.Query().Get("key")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New(httpclient.NewRestyClient(time.Second), srv.URL, "k", nil)
}

func TestCheckNormalizesVerdicts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want []Verdict
	}{
		{
			name: "claim without review is excluded",
			body: `{"claims":[{"text":"no review here"}]}`,
			want: []Verdict{},
		},
		{
			name: "empty review list is excluded",
			body: `{"claims":[{"text":"x","claimReview":[]}]}`,
			want: []Verdict{},
		},
		{
			name: "full review",
			body: `{"claims":[{"claimReview":[{"url":"https://pf.org/1","textualRating":"False","publisher":{"name":"PolitiFact"}},{"url":"ignored"}]}]}`,
			want: []Verdict{{Verdict: "False", Source: "PolitiFact", URL: "https://pf.org/1"}},
		},
		{
			name: "missing fields default independently",
			body: `{"claims":[{"claimReview":[{"textualRating":"Misleading"}]},{"claimReview":[{"url":"u","publisher":{}}]}]}`,
			want: []Verdict{
				{Verdict: "Misleading", Source: "Unknown", URL: "Unknown"},
				{Verdict: "Unknown", Source: "Unknown", URL: "u"},
			},
		},
		{
			name: "no claims at all",
			body: `{}`,
			want: []Verdict{},
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got := checkerFor(t, http.StatusOK, testCase.body, nil).Check(context.Background(), "claim")
			if !reflect.DeepEqual(got, testCase.want) {
				t.Fatalf("Check = %#v, want %#v", got, testCase.want)
			}
		})
	}
}

func TestCheckTruncatesClaim(t *testing.T) {
	t.Parallel()

	seenCh := make(chan string, 1)
	c := checkerFor(t, http.StatusOK, `{"claims":[]}`, seenCh)

	claim := strings.Repeat("é", 40) + strings.Repeat("x", 40) + " & more"
	c.Check(context.Background(), claim)

	seen := <-seenCh
	want := strings.Repeat("é", 40) + strings.Repeat("x", 10) + "|k|"
	if seen != want {
		t.Fatalf("query = %q, want %q", seen, want)
	}
}

func TestCheckFailuresBecomeErrorRecord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		status           int
		body             string
		wantErrSubstring string
	}{
		{name: "bad json", status: http.StatusOK, body: `<html>`, wantErrSubstring: "decode"},
		{name: "server error", status: http.StatusForbidden, body: `{"error":{}}`, wantErrSubstring: "status 403"},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got := checkerFor(t, testCase.status, testCase.body, nil).Check(context.Background(), "claim")
			if len(got) != 1 || !strings.Contains(got[0].Error, testCase.wantErrSubstring) {
				t.Fatalf("Check = %#v", got)
			}
			if got[0].Verdict != "" || got[0].Source != "" {
				t.Fatalf("error record should carry only the error: %#v", got[0])
			}
		})
	}
}

func TestCheckTransportFailure(t *testing.T) {
	t.Parallel()

	c := New(httpclient.NewRestyClient(200*time.Millisecond), "http://127.0.0.1:1/search", "SECRET-FC-KEY", nil)
	got := c.Check(context.Background(), "claim")
	if len(got) != 1 || got[0].Error == "" {
		t.Fatalf("Check = %#v", got)
	}
	if strings.Contains(got[0].Error, "SECRET-FC-KEY") {
		t.Fatalf("error record leaks api key: %s", got[0].Error)
	}
}
