package reply

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type claude struct {
	client anthropic.Client
	model  string
}

func newAnthropic(apiKey, model string, c *http.Client) *claude {
	return &claude{
		client: anthropic.NewClient(option.WithAPIKey(apiKey), option.WithHTTPClient(c), option.WithMaxRetries(0)),
		model:  model,
	}
}

func (a *claude) Reply(ctx context.Context, text, from string) (string, error) {
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model: anthropic.Model(a.model),
		System: []anthropic.TextBlockParam{
			{Text: instructions},
		},
		Messages: []anthropic.MessageParam{
			{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{
					{OfRequestTextBlock: &anthropic.TextBlockParam{Text: prompt(text, from)}},
				},
			},
		},
		Temperature: anthropic.Float(0.4),
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("error calling Anthropic API: %w", err)
	}

	var output strings.Builder
	for _, content := range resp.Content {
		if content.Type == "text" {
			output.WriteString(content.Text)
		}
	}
	return finish(output.String())
}
