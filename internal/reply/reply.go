// Package reply generates short SMS replies to inbound messages using an LLM provider.
package reply

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nyaruka/gocommon/stringsx"
)

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderNone      = "none"

	// three concatenated SMS segments
	maxReplyLength = 459
	maxTokens      = 256

	instructions = "You are a friendly support assistant answering customers over SMS. " +
		"Reply in the language of the customer's message, in plain text without markdown, " +
		"and keep the answer under 300 characters."
)

var (
	ErrDisabled   = errors.New("reply generation is disabled")
	ErrEmptyReply = errors.New("reply generator returned no text")
)

var defaultModels = map[string]string{
	ProviderGemini:    "gemini-2.0-flash",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-3-5-haiku-latest",
}

// Generator produces a reply for an inbound message.
type Generator interface {
	Reply(ctx context.Context, text, from string) (string, error)
}

type Options struct {
	Provider string
	APIKey   string
	Model    string

	HTTPClient *http.Client
}

// New builds the generator for the configured provider.
func New(ctx context.Context, opts Options) (Generator, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = ProviderGemini
	}
	if provider == ProviderNone {
		return Disabled{}, nil
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("config incomplete for %s reply generator: missing API key", provider)
	}

	model := opts.Model
	if model == "" {
		model = defaultModels[provider]
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	switch provider {
	case ProviderGemini:
		return newGemini(ctx, opts.APIKey, model, client)
	case ProviderOpenAI:
		return newOpenAI(opts.APIKey, model, client), nil
	case ProviderAnthropic:
		return newAnthropic(opts.APIKey, model, client), nil
	default:
		return nil, fmt.Errorf("unknown reply provider %q", provider)
	}
}

// Disabled always fails so callers send their fallback.
type Disabled struct{}

func (Disabled) Reply(context.Context, string, string) (string, error) {
	return "", ErrDisabled
}

// Fallback is the deterministic acknowledgement sent when no reply could be generated.
func Fallback(text string) string {
	return "Ack: " + text
}

func prompt(text, from string) string {
	if from == "" {
		return text
	}
	return fmt.Sprintf("Message from %s: %s", from, text)
}

// finish normalizes provider output into something that fits an SMS thread.
func finish(out string) (string, error) {
	out = strings.Join(strings.Fields(out), " ")
	if out == "" {
		return "", ErrEmptyReply
	}
	return stringsx.TruncateEllipsis(out, maxReplyLength), nil
}
