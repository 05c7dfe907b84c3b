package generator

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiTemperature float32 = 0.9

// GeminiGenerator uses the Gemini API through the genai SDK.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(userPrompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt(req), genai.RoleUser),
		Temperature:       genai.Ptr(defaultGeminiTemperature),
		MaxOutputTokens:   400,
	})
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	return finalize(resp.Text(), req.Platform)
}
