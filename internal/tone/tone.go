// Package tone rewrites neutral article summaries in a requested tone.
package tone

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/samvad-hq/newstone/pkg/llm"
)

// Neutral is the tone that leaves text untouched.
const Neutral = "neutral"

const maxToneLength = 32

var (
	// ErrInvalidTone is returned for empty, overlong or malformed tone labels.
	ErrInvalidTone = errors.New("invalid tone")
	// ErrUnavailable is returned when a rewrite is requested but no model is configured.
	ErrUnavailable = errors.New("tone rewriting is not configured")
)

// Config controls rewrite requests.
type Config struct {
	Model           string
	MaxOutputTokens int
	Temperature     float64
	Timeout         time.Duration
}

// Transformer rewrites text through an llm.Generator.
type Transformer struct {
	gen llm.Generator
	cfg Config
}

// New returns a Transformer. A nil generator makes every non-neutral rewrite fail with ErrUnavailable.
func New(gen llm.Generator, cfg Config) *Transformer {
	return &Transformer{gen: gen, cfg: cfg}
}

// IsNeutral reports whether tone selects the untouched summary.
func IsNeutral(tone string) bool {
	return strings.EqualFold(strings.TrimSpace(tone), Neutral)
}

// Validate checks a tone label: letters, spaces and hyphens, at most 32 characters.
func Validate(tone string) error {
	tone = strings.TrimSpace(tone)
	if tone == "" {
		return fmt.Errorf("%w: empty", ErrInvalidTone)
	}
	if len([]rune(tone)) > maxToneLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidTone, maxToneLength)
	}
	for _, r := range tone {
		if !unicode.IsLetter(r) && r != ' ' && r != '-' {
			return fmt.Errorf("%w: %q", ErrInvalidTone, tone)
		}
	}
	return nil
}

// Transform returns text rewritten in tone. Neutral returns text unchanged.
func (t *Transformer) Transform(ctx context.Context, text, tone string) (string, error) {
	if IsNeutral(tone) {
		return text, nil
	}
	if err := Validate(tone); err != nil {
		return "", err
	}
	if t.gen == nil {
		return "", ErrUnavailable
	}

	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}

	out, err := t.gen.Generate(ctx, llm.Request{
		Model:           t.cfg.Model,
		Prompt:          Prompt(text, tone),
		MaxOutputTokens: t.cfg.MaxOutputTokens,
		Temperature:     t.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("rewrite in %q tone: %w", strings.TrimSpace(tone), err)
	}
	return out, nil
}

// Prompt builds the rewrite instruction sent to the model.
func Prompt(text, tone string) string {
	return fmt.Sprintf("Rewrite this news in a %s tone:\n\n%s", strings.TrimSpace(tone), text)
}
