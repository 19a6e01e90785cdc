package llm

import (
	"context"
	"fmt"
	"strings"

	"bargain-bites/internal/config"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient is a client for the Google Gemini API.
type GeminiClient struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
}

// NewGeminiClient creates a new Gemini API client that answers in JSON.
func NewGeminiClient(ctx context.Context, cfg *config.Config) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.GeminiModel)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.4)

	return &GeminiClient{client: client, model: model, modelName: cfg.GeminiModel}, nil
}

// GenerateContent sends a prompt to the Gemini model and returns the generated text.
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to generate content: %w", err)
	}

	usage := TokenUsage{Model: c.modelName}
	if resp.UsageMetadata != nil {
		usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ContentResponse{Usage: usage}, fmt.Errorf("no content generated")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return ContentResponse{Usage: usage}, fmt.Errorf("generated content is not text")
	}

	return ContentResponse{Content: sb.String(), Usage: usage}, nil
}

// Close closes the underlying Gemini client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}
