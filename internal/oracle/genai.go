package oracle

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Settings configures the generation request
type Settings struct {
	Model           string
	MaxOutputTokens int32
	Temperature     float32
	TopP            float32
}

// GenAI generates text with Google's Gemini API
type GenAI struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGenAI creates a Gemini-backed Generator
func NewGenAI(ctx context.Context, apiKey string, s Settings) (*GenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if s.Model == "" {
		s.Model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAI{
		client: client,
		model:  s.Model,
		config: &genai.GenerateContentConfig{
			MaxOutputTokens: s.MaxOutputTokens,
			Temperature:     genai.Ptr(s.Temperature),
			TopP:            genai.Ptr(s.TopP),
		},
	}, nil
}

// Generate sends a single prompt and returns the response text
func (g *GenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	return resp.Text(), nil
}

// Name returns the generator name
func (g *GenAI) Name() string {
	return fmt.Sprintf("genai:%s", g.model)
}
