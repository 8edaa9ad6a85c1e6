package reply

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

type gemini struct {
	client *genai.Client
	model  string
}

func newGemini(ctx context.Context, apiKey, model string, c *http.Client) (*gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating gemini client: %w", err)
	}
	return &gemini{client: client, model: model}, nil
}

func (g *gemini) Reply(ctx context.Context, text, from string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(0.4)),
		MaxOutputTokens:   int32(maxTokens),
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: instructions}}},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt(text, from)), config)
	if err != nil {
		var apierr *genai.APIError
		if errors.As(err, &apierr) {
			return "", fmt.Errorf("error calling Gemini API: %d %s", apierr.Code, apierr.Message)
		}
		return "", fmt.Errorf("error calling Gemini API: %w", err)
	}

	var output strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil {
				output.WriteString(part.Text)
			}
		}
		break
	}
	return finish(output.String())
}
