package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// chdirTemp isolates Load from any .env file in the package directory.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("NEWSTONE_CONFIG", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":8000" || cfg.News.Topic != "Donald Trump" || cfg.News.Limit != 5 {
		t.Fatalf("defaults = %+v %+v", cfg.Server, cfg.News)
	}
	if cfg.News.DefaultTone != "neutral" || cfg.Bot.DefaultTone != "satirical" {
		t.Fatalf("tones = %q %q", cfg.News.DefaultTone, cfg.Bot.DefaultTone)
	}
	if cfg.News.PopulateTimeout != 3*time.Minute || cfg.Server.WriteTimeout != 5*time.Minute {
		t.Fatalf("durations = %v %v", cfg.News.PopulateTimeout, cfg.Server.WriteTimeout)
	}
	if cfg.News.Provider.Type != "newsapi" || cfg.LLM.Provider != "" {
		t.Fatalf("provider = %+v llm = %+v", cfg.News.Provider, cfg.LLM)
	}
}

func TestLoadFileEnvAndCredentials(t *testing.T) {
	dir := chdirTemp(t)

	file := filepath.Join(dir, "newstone.yaml")
	err := os.WriteFile(file, []byte(`
news:
  topic: Elections
  limit: 10
  provider:
    type: google-news-sitemap
    source_url: https://example.com/news-sitemap.xml
llm:
  provider: openai
`), 0o600)
	if err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("FACT_CHECK_API_KEY=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("FACT_CHECK_API_KEY") })

	t.Setenv("NEWSTONE_NEWS_WORKERS", "8")
	t.Setenv("NEWS_API_KEY", "news-key")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.News.Topic != "Elections" || cfg.News.Limit != 10 || cfg.News.Workers != 8 {
		t.Fatalf("news = %+v", cfg.News)
	}
	if cfg.News.Provider.Type != "google-news-sitemap" || cfg.News.Provider.APIKey != "news-key" {
		t.Fatalf("provider = %+v", cfg.News.Provider)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Fatalf("llm key = %q", cfg.LLM.APIKey)
	}
	if cfg.FactCheck.APIKey != "from-dotenv" {
		t.Fatalf("factcheck key = %q", cfg.FactCheck.APIKey)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := func() Config {
		c := Config{}
		c.News.Topic = "t"
		c.News.Limit = 5
		c.News.Workers = 1
		c.News.PopulateTimeout = time.Minute
		c.News.Provider.Type = "newsapi"
		return c
	}

	tests := []struct {
		name             string
		mutate           func(*Config)
		wantErrSubstring string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "limit too small", mutate: func(c *Config) { c.News.Limit = 0 }, wantErrSubstring: "news.limit"},
		{name: "limit too large", mutate: func(c *Config) { c.News.Limit = 101 }, wantErrSubstring: "news.limit"},
		{name: "no workers", mutate: func(c *Config) { c.News.Workers = 0 }, wantErrSubstring: "news.workers"},
		{name: "unknown provider", mutate: func(c *Config) { c.News.Provider.Type = "rss" }, wantErrSubstring: "not supported"},
		{name: "unknown llm", mutate: func(c *Config) { c.LLM.Provider = "claude" }, wantErrSubstring: "unknown llm provider"},
		{name: "llm without key", mutate: func(c *Config) { c.LLM.Provider = "gemini" }, wantErrSubstring: "requires an api key"},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			cfg := base()
			testCase.mutate(&cfg)
			err := cfg.Validate()
			if testCase.wantErrSubstring == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), testCase.wantErrSubstring) {
				t.Fatalf("error = %v, want substring %q", err, testCase.wantErrSubstring)
			}
		})
	}
}
