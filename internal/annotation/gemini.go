package annotation

import (
	"context"
	"errors"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-3-flash-preview"

var errNoAPIKey = errors.New("gemini api key not configured")

// ResponseSchema is the structured output declared to the model.
func ResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"tags": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "3 relevant tags for the link",
			},
			"summary": {
				Type:        genai.TypeString,
				Description: "A short 5-word summary",
			},
			"category": {
				Type:        genai.TypeString,
				Description: "General category (e.g. Social, Tech, Shopping)",
			},
		},
		Required: []string{"tags", "summary", "category"},
	}
}

// GeminiGenerator calls the Gemini API with a JSON response schema.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a Gemini-backed generator.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errNoAPIKey
	}

	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   ResponseSchema(),
	})
	if err != nil {
		return "", err
	}

	return resp.Text(), nil
}

// UnavailableGenerator always fails. It stands in when no API key is
// configured so that links are still created with the fallback annotation.
type UnavailableGenerator struct{}

func (UnavailableGenerator) Generate(context.Context, string) (string, error) {
	return "", errNoAPIKey
}
