package classify

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/biascheck/internal/budget"
	"github.com/hyperifyio/biascheck/internal/llm"
)

// Defaults applied when the corresponding Classifier field is zero.
const (
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.2
)

// Classifier asks a language model for a bias verdict.
type Classifier struct {
	Provider llm.Provider
	// Model is used to bound the prompt to the model context window.
	Model     string
	MaxTokens int
	// Temperature is sent as is; callers wanting the default set
	// DefaultTemperature.
	Temperature     float32
	MaxContentChars int
	// UseSchema attaches the verdict JSON schema to the request.
	UseSchema bool
}

// Classify returns the model's verdict for an article. It never fails: any
// provider or parse error yields Failed().
func (c *Classifier) Classify(ctx context.Context, title, content string) Verdict {
	if c == nil || c.Provider == nil {
		log.Error().Msg("classifier has no provider")
		return Failed()
	}
	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	limit := c.MaxContentChars
	if limit <= 0 {
		limit = DefaultMaxContentChars
	}
	overhead := budget.EstimateTokens(systemMessage) + budget.EstimateTokens(buildUserMessage(title, ""))
	limit = budget.ContentChars(c.Model, maxTokens, overhead, limit)
	if limit <= 0 {
		log.Warn().Str("model", c.Model).Int("max_tokens", maxTokens).Msg("no room for article content in the model context")
		return Failed()
	}

	req := llm.Request{
		System:      systemMessage,
		Prompt:      buildUserMessage(title, truncateChars(content, limit)),
		MaxTokens:   maxTokens,
		Temperature: c.Temperature,
	}
	if c.UseSchema {
		req.Schema = Schema()
	}

	raw, err := c.Provider.Complete(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("model", c.Model).Msg("bias classification request failed")
		return Failed()
	}
	v, attempt, ok := parseVerdict(raw)
	if !ok {
		log.Warn().Int("response_chars", len(raw)).Str("model", c.Model).Msg("model response did not contain a valid verdict")
		return Failed()
	}
	log.Debug().Str("parse", attempt).Str("label", v.Label).Float64("confidence", v.Confidence).Msg("verdict parsed")
	return v
}
