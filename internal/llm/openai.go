package llm

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Chat is a Provider backed by any OpenAI-compatible chat completions API.
type Chat struct {
	Client Client
	Model  string
	// StructuredOutput requests a strict JSON schema response format when the
	// request carries a Schema. Some local servers reject response_format, so
	// it is opt-in.
	StructuredOutput bool
}

// Complete sends a system+user message pair and returns the first choice.
func (c *Chat) Complete(ctx context.Context, req Request) (string, error) {
	if c == nil || c.Client == nil || strings.TrimSpace(c.Model) == "" {
		return "", &ProviderError{Provider: "openai", Err: errors.New("chat provider not configured")}
	}
	// A zero temperature would be dropped by omitempty and the server default
	// used instead.
	temperature := req.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}
	creq := openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: temperature,
		N:           1,
	}
	if c.StructuredOutput && req.Schema != nil {
		def := jsonSchemaFor(req.Schema)
		creq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        req.Schema.Name,
				Description: req.Schema.Description,
				Schema:      &def,
				Strict:      true,
			},
		}
	}

	resp, err := c.Client.CreateChatCompletion(ctx, creq)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			log.Debug().Int("status", apiErr.HTTPStatusCode).Str("type", apiErr.Type).Str("model", c.Model).Msg("chat completion rejected")
		}
		return "", &ProviderError{Provider: "openai", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderError{Provider: "openai", Err: ErrEmptyResponse}
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", &ProviderError{Provider: "openai", Err: ErrEmptyResponse}
	}
	return content, nil
}

func jsonSchemaFor(s *Schema) jsonschema.Definition {
	def := jsonschema.Definition{
		Type:                 jsonschema.Object,
		Properties:           make(map[string]jsonschema.Definition, len(s.Fields)),
		AdditionalProperties: false,
	}
	for _, f := range s.Fields {
		var p jsonschema.Definition
		switch f.Type {
		case FieldNumber:
			p = jsonschema.Definition{Type: jsonschema.Number}
		case FieldStringList:
			p = jsonschema.Definition{Type: jsonschema.Array, Items: &jsonschema.Definition{Type: jsonschema.String}}
		default:
			p = jsonschema.Definition{Type: jsonschema.String, Enum: f.Enum}
		}
		p.Description = f.Description
		def.Properties[f.Name] = p
		def.Required = append(def.Required, f.Name)
	}
	return def
}
