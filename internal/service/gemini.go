package service

import (
	"context"
	"fmt"

	"sozoku-docs/pkg/config"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiVision is the Gemini-backed VisionClient. Requests pin a low
// temperature and a JSON response MIME so the model answers with parseable
// structured output.
type GeminiVision struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

func NewGeminiVision(ctx context.Context, cfg *config.GeminiConfig, logger *zap.Logger) (*GeminiVision, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiVision{
		client: client,
		model:  cfg.Model,
		logger: logger,
	}, nil
}

func (g *GeminiVision) GenerateJSON(ctx context.Context, prompt string, document []byte, mimeType string) ([]byte, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     document,
					},
				},
			},
		},
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.1),
		ResponseMIMEType: "application/json",
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	g.logger.Debug("Vision model responded",
		zap.String("model", g.model),
		zap.Int("response_length", len(rawText)),
	)

	return []byte(cleanModelJSON(rawText)), nil
}

// Ensure GeminiVision implements VisionClient.
var _ VisionClient = (*GeminiVision)(nil)
