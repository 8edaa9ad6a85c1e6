package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/nyaruka/gocommon/httpx"
	"github.com/nyaruka/gocommon/jsonx"
)

const whatsAppTimeout = 20 * time.Second

type WhatsAppOptions struct {
	APIURL   string
	Username string
	APIKey   string
	Sender   string

	HTTPClient *http.Client
}

// WhatsApp relays outbound messages to the configured WhatsApp send endpoint.
type WhatsApp struct {
	apiURL   string
	username string
	apiKey   string
	sender   string

	httpClient *http.Client
}

func NewWhatsApp(opts WhatsAppOptions) *WhatsApp {
	var transport http.RoundTripper
	if opts.HTTPClient != nil {
		transport = opts.HTTPClient.Transport
	}
	return &WhatsApp{
		apiURL:     opts.APIURL,
		username:   opts.Username,
		apiKey:     opts.APIKey,
		sender:     opts.Sender,
		httpClient: &http.Client{Transport: transport, Timeout: whatsAppTimeout},
	}
}

func (w *WhatsApp) Configured() bool {
	return w != nil && w.apiURL != "" && w.apiKey != ""
}

type whatsAppPayload struct {
	Username string          `json:"username"`
	From     string          `json:"from,omitempty"`
	To       []string        `json:"to"`
	Message  string          `json:"message,omitempty"`
	MediaURL string          `json:"mediaUrl,omitempty"`
	Template json.RawMessage `json:"template,omitempty"`
}

func (w *WhatsApp) Send(ctx context.Context, req WhatsAppRequest) (*Result, error) {
	if !w.Configured() {
		return nil, ErrWhatsAppNotConfigured
	}
	to := req.To.normalize()
	if len(to) == 0 {
		return nil, ErrNoRecipients
	}
	if strings.TrimSpace(req.Message) == "" && len(req.Template) == 0 {
		return nil, ErrEmptyMessage
	}

	payload := jsonx.MustMarshal(&whatsAppPayload{
		Username: w.username,
		From:     w.sender,
		To:       to,
		Message:  req.Message,
		MediaURL: req.MediaURL,
		Template: req.Template,
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, &WhatsAppError{Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("apikey", w.apiKey)

	body, err := checkResponse(httpx.DoTrace(w.httpClient, httpReq, nil, nil, -1))
	if err != nil {
		return nil, &WhatsAppError{Err: err}
	}
	return &Result{Via: ViaREST, Payload: body}, nil
}
