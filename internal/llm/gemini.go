package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient implements Client via Google's GenAI API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed completion client.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Complete sends one completion and returns the text.
func (c *GeminiClient) Complete(ctx context.Context, r Request) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if r.Temperature > 0 {
		temp := float32(r.Temperature)
		cfg.Temperature = &temp
	}
	if r.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(r.MaxTokens)
	}
	if r.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(r.System, genai.RoleUser)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(r.Prompt, genai.RoleUser),
	}
	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("GenAI completion failed: %w", err)
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("no completion returned")
	}
	return text, nil
}

// GetModel returns the current model.
func (c *GeminiClient) GetModel() string {
	return c.model
}
