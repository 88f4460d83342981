package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini is a Provider backed by the Google Generative AI SDK.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini provider. Close releases the underlying client.
func NewGemini(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if strings.TrimSpace(model) == "" {
		model = "gemini-1.5-flash"
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, &ProviderError{Provider: "gemini", Err: err}
	}
	return &Gemini{client: client, model: model}, nil
}

// Complete generates a single candidate and returns its concatenated text
// parts.
func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	m := g.client.GenerativeModel(g.model)
	if req.System != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	m.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	m.SetCandidateCount(1)
	if req.Schema != nil {
		m.ResponseMIMEType = "application/json"
		m.ResponseSchema = geminiSchemaFor(req.Schema)
	}

	resp, err := m.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", &ProviderError{Provider: "gemini", Err: err}
	}
	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", &ProviderError{Provider: "gemini", Err: ErrEmptyResponse}
	}
	return text, nil
}

// Close releases the SDK client.
func (g *Gemini) Close() error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

func geminiSchemaFor(s *Schema) *genai.Schema {
	out := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(s.Fields)),
	}
	for _, f := range s.Fields {
		var p *genai.Schema
		switch f.Type {
		case FieldNumber:
			p = &genai.Schema{Type: genai.TypeNumber}
		case FieldStringList:
			p = &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
		default:
			p = &genai.Schema{Type: genai.TypeString}
			if len(f.Enum) > 0 {
				p.Format = "enum"
				p.Enum = f.Enum
			}
		}
		p.Description = f.Description
		out.Properties[f.Name] = p
		out.Required = append(out.Required, f.Name)
	}
	return out
}
