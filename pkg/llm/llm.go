// Package llm defines the provider-neutral text generation contract used to
// summarize articles and rewrite them in a requested tone.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyOutput is returned when a provider answers with no text.
var ErrEmptyOutput = errors.New("llm returned empty output")

// Generator produces one text completion for one request.
//
// Implementations must be safe for concurrent use; the pipeline rewrites
// several articles at the same time.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Request describes one generation call.
type Request struct {
	// Model identifies which provider model should be used.
	Model string
	// System carries optional instructions placed before the prompt.
	System string
	// Prompt is the user-facing input text.
	Prompt string
	// MaxOutputTokens optionally bounds generated output token count.
	MaxOutputTokens int
	// Temperature optionally controls output randomness.
	Temperature float64
}

// Validate checks one request contract.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Model) == "" {
		return fmt.Errorf("validate llm request: missing model")
	}
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("validate llm request: missing prompt")
	}
	if r.MaxOutputTokens < 0 {
		return fmt.Errorf("validate llm request: max_output_tokens must be >= 0")
	}
	if r.Temperature < 0 {
		return fmt.Errorf("validate llm request: temperature must be >= 0")
	}
	return nil
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
