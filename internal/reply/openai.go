package reply

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

type openAI struct {
	client openai.Client
	model  string
}

func newOpenAI(apiKey, model string, c *http.Client) *openAI {
	return &openAI{
		client: openai.NewClient(option.WithAPIKey(apiKey), option.WithHTTPClient(c), option.WithMaxRetries(0)),
		model:  model,
	}
}

func (o *openAI) Reply(ctx context.Context, text, from string) (string, error) {
	resp, err := o.client.Responses.New(ctx, responses.ResponseNewParams{
		Model:        shared.ResponsesModel(o.model),
		Instructions: openai.String(instructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(prompt(text, from)),
		},
		Temperature:     openai.Float(0.4),
		MaxOutputTokens: openai.Int(maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("error calling OpenAI API: %w", err)
	}
	return finish(resp.OutputText())
}
