// Package config loads service settings from defaults, an optional file,
// a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/samvad-hq/newstone/pkg/llm"
	"github.com/samvad-hq/newstone/pkg/providers"
)

// EnvPrefix prefixes every environment override, e.g. NEWSTONE_NEWS_LIMIT.
const EnvPrefix = "NEWSTONE"

// Config is the full service configuration.
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Server     ServerConfig     `mapstructure:"server"`
	News       NewsConfig       `mapstructure:"news"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Summarizer SummarizerConfig `mapstructure:"summarizer"`
	Tone       ToneConfig       `mapstructure:"tone"`
	FactCheck  FactCheckConfig  `mapstructure:"factcheck"`
	Meme       MemeConfig       `mapstructure:"meme"`
	Publishers PublishersConfig `mapstructure:"publishers"`
	Bot        BotConfig        `mapstructure:"bot"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type NewsConfig struct {
	Topic           string             `mapstructure:"topic"`
	Limit           int                `mapstructure:"limit"`
	DefaultTone     string             `mapstructure:"default_tone"`
	Workers         int                `mapstructure:"workers"`
	PopulateTimeout time.Duration      `mapstructure:"populate_timeout"`
	Provider        providers.Provider `mapstructure:"provider"`
}

type HTTPConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryCount int           `mapstructure:"retry_count"`
	UserAgent  string        `mapstructure:"user_agent"`
}

type LLMConfig struct {
	Provider        string  `mapstructure:"provider"`
	APIKey          string  `mapstructure:"api_key"`
	BaseURL         string  `mapstructure:"base_url"`
	Model           string  `mapstructure:"model"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens"`
	Temperature     float64 `mapstructure:"temperature"`
	MaxRetries      int     `mapstructure:"max_retries"`
}

type SummarizerConfig struct {
	SummaryChars    int `mapstructure:"summary_chars"`
	MaxOutputTokens int `mapstructure:"max_output_tokens"`
}

type ToneConfig struct {
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type FactCheckConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
}

type MemeConfig struct {
	BaseImage string  `mapstructure:"base_image"`
	FontPath  string  `mapstructure:"font_path"`
	FontSize  float64 `mapstructure:"font_size"`
}

type PublishersConfig struct {
	File string `mapstructure:"file"`
}

type BotConfig struct {
	Token       string        `mapstructure:"token"`
	APIURL      string        `mapstructure:"api_url"`
	DefaultTone string        `mapstructure:"default_tone"`
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("news.topic", "Donald Trump")
	v.SetDefault("news.limit", 5)
	v.SetDefault("news.default_tone", "neutral")
	v.SetDefault("news.workers", 4)
	v.SetDefault("news.populate_timeout", 3*time.Minute)
	v.SetDefault("news.provider.id", "newsapi")
	v.SetDefault("news.provider.type", providers.ProviderTypeNewsAPI)
	v.SetDefault("news.provider.source_url", providers.NewsAPIEverythingURL)
	v.SetDefault("news.provider.api_key", "")
	v.SetDefault("news.provider.language", "en")
	v.SetDefault("news.provider.headers", map[string]string{})
	v.SetDefault("news.provider.request_delay_ms", 0)

	v.SetDefault("http.timeout", 15*time.Second)
	v.SetDefault("http.retry_count", 1)
	v.SetDefault("http.user_agent", "")

	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.max_output_tokens", 512)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_retries", 2)

	v.SetDefault("summarizer.summary_chars", 600)
	v.SetDefault("summarizer.max_output_tokens", 256)

	v.SetDefault("tone.max_output_tokens", 512)
	v.SetDefault("tone.timeout", 60*time.Second)

	v.SetDefault("factcheck.endpoint", "https://factchecktools.googleapis.com/v1alpha1/claims:search")
	v.SetDefault("factcheck.api_key", "")

	v.SetDefault("meme.base_image", "")
	v.SetDefault("meme.font_path", "")
	v.SetDefault("meme.font_size", 40)

	v.SetDefault("publishers.file", "")

	v.SetDefault("bot.token", "")
	v.SetDefault("bot.api_url", "http://localhost:8000")
	v.SetDefault("bot.default_tone", "satirical")
	v.SetDefault("bot.poll_timeout", 60*time.Second)
}

// credentialEnv lists conventional variable names honoured next to the prefixed ones.
var credentialEnv = map[string]string{
	"news.provider.api_key": "NEWS_API_KEY",
	"factcheck.api_key":     "FACT_CHECK_API_KEY",
	"bot.token":             "TELEGRAM_BOT_TOKEN",
}

// llmKeyEnv maps an LLM provider to its conventional key variable.
var llmKeyEnv = map[string]string{
	llm.ProviderOpenAI: "OPENAI_API_KEY",
	llm.ProviderGemini: "GEMINI_API_KEY",
}

// Load reads configuration. path may be empty, in which case NEWSTONE_CONFIG
// is consulted and, failing that, only defaults and environment apply.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range credentialEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if cfg.LLM.APIKey == "" {
		if env, ok := llmKeyEnv[cfg.LLM.Provider]; ok {
			cfg.LLM.APIKey = os.Getenv(env)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and known names.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.News.Topic) == "" {
		errs = append(errs, errors.New("news.topic is required"))
	}
	if c.News.Limit < 1 || c.News.Limit > 100 {
		errs = append(errs, fmt.Errorf("news.limit must be between 1 and 100, got %d", c.News.Limit))
	}
	if c.News.Workers < 1 {
		errs = append(errs, fmt.Errorf("news.workers must be >= 1, got %d", c.News.Workers))
	}
	if c.News.PopulateTimeout <= 0 {
		errs = append(errs, errors.New("news.populate_timeout must be positive"))
	}
	if !providers.KnownType(c.News.Provider.Type) {
		errs = append(errs, fmt.Errorf("news.provider.type %q is not supported", c.News.Provider.Type))
	}
	if _, err := c.LLMSettings().Normalize(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LLMSettings converts the llm section for the generator factory.
func (c Config) LLMSettings() llm.Config {
	return llm.Config{
		Provider:        c.LLM.Provider,
		APIKey:          c.LLM.APIKey,
		BaseURL:         c.LLM.BaseURL,
		Model:           c.LLM.Model,
		MaxOutputTokens: c.LLM.MaxOutputTokens,
		Temperature:     c.LLM.Temperature,
		MaxRetries:      c.LLM.MaxRetries,
	}
}
