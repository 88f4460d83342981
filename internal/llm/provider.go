package llm

import (
    "context"
    "errors"

    openai "github.com/sashabaranov/go-openai"
)

// Client is the minimal chat completion surface used by the OpenAI-compatible
// provider. It mirrors go-openai so local backends and test doubles can be
// plugged in.
type Client interface {
    CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ModelLister is an optional capability that allows listing available models.
// Callers detect it with a type assertion.
type ModelLister interface {
    ListModels(ctx context.Context) (openai.ModelsList, error)
}

// OpenAIProvider adapts *openai.Client to the Client/ModelLister interfaces.
type OpenAIProvider struct {
    Inner *openai.Client
}

func (p *OpenAIProvider) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
    return p.Inner.CreateChatCompletion(ctx, request)
}

func (p *OpenAIProvider) ListModels(ctx context.Context) (openai.ModelsList, error) {
    return p.Inner.ListModels(ctx)
}

// ErrEmptyResponse is returned when the model answered without any text.
var ErrEmptyResponse = errors.New("empty model response")

// Request is one bounded, single-turn completion.
type Request struct {
    System string
    Prompt string
    // Schema, when set, asks the backend for structured JSON output.
    Schema      *Schema
    MaxTokens   int
    Temperature float32
}

// Provider is a text generation backend. Complete returns the raw assistant
// text; interpreting it is the caller's job.
type Provider interface {
    Complete(ctx context.Context, req Request) (string, error)
}

// FieldType enumerates the value shapes a Schema field may take.
type FieldType int

const (
    FieldString FieldType = iota
    FieldNumber
    FieldStringList
)

// Field is one required property of a flat JSON object.
type Field struct {
    Name        string
    Type        FieldType
    Description string
    // Enum restricts string fields to the listed values.
    Enum []string
}

// Schema describes a flat JSON object independent of any backend's schema
// dialect.
type Schema struct {
    Name        string
    Description string
    Fields      []Field
}

// ProviderError annotates a backend failure with the provider name.
type ProviderError struct {
    Provider string
    Err      error
}

func (e *ProviderError) Error() string { return e.Provider + ": " + e.Err.Error() }

func (e *ProviderError) Unwrap() error { return e.Err }
