package carrier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/google/uuid"
	"github.com/nyaruka/gocommon/httpx"
	"github.com/nyaruka/gocommon/jsonx"

	"atgateway/pkg/logger"
)

const (
	liveAPIBase     = "https://api.africastalking.com/version1"
	sandboxAPIBase  = "https://api.sandbox.africastalking.com/version1"
	liveVoiceURL    = "https://voice.africastalking.com/call"
	sandboxVoiceURL = "https://voice.sandbox.africastalking.com/call"

	sandboxUsername = "sandbox"

	defaultTimeout      = 15 * time.Second
	restFallbackTimeout = 15 * time.Second
)

type Options struct {
	Username string
	APIKey   string

	// Timeout bounds each carrier call.
	Timeout time.Duration

	// VoiceRESTURL receives the raw call form when the primary voice path fails.
	VoiceRESTURL string

	// APIBaseURL and VoiceURL override the hosts picked from Username.
	APIBaseURL string
	VoiceURL   string

	HTTPClient *http.Client
}

// Client talks to the Africa's Talking HTTP API.
type Client struct {
	username string
	apiKey   string
	timeout  time.Duration

	apiBase      string
	voiceURL     string
	voiceRESTURL string

	httpClient *http.Client
	restClient *http.Client
}

var _ Carrier = (*Client)(nil)

func New(opts Options) *Client {
	c := &Client{
		username:     opts.Username,
		apiKey:       opts.APIKey,
		timeout:      opts.Timeout,
		apiBase:      strings.TrimRight(opts.APIBaseURL, "/"),
		voiceURL:     opts.VoiceURL,
		voiceRESTURL: opts.VoiceRESTURL,
		httpClient:   opts.HTTPClient,
	}
	if c.username == "" {
		c.username = sandboxUsername
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.apiBase == "" {
		c.apiBase = liveAPIBase
		if c.username == sandboxUsername {
			c.apiBase = sandboxAPIBase
		}
	}
	if c.voiceURL == "" {
		c.voiceURL = liveVoiceURL
		if c.username == sandboxUsername {
			c.voiceURL = sandboxVoiceURL
		}
	}
	if c.voiceRESTURL == "" {
		c.voiceRESTURL = liveVoiceURL
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	c.restClient = &http.Client{Transport: c.httpClient.Transport, Timeout: restFallbackTimeout}
	return c
}

// SendSMS sends one message to all recipients in a single carrier request.
func (c *Client) SendSMS(ctx context.Context, req SMSRequest) (*Result, error) {
	to := req.To.normalize()
	if len(to) == 0 {
		return nil, ErrNoRecipients
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}
	if c.apiKey == "" {
		return nil, &SendError{Err: ErrMissingCredentials}
	}

	form := url.Values{
		"username": {c.username},
		"to":       {to.String()},
		"message":  {req.Message},
	}
	if req.From != "" {
		form.Set("from", req.From)
	}
	if req.LinkID != "" {
		form.Set("linkId", req.LinkID)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := checkResponse(c.postForm(ctx, c.httpClient, c.apiBase+"/messaging", form))
	if err != nil {
		return nil, &SendError{Err: err}
	}

	if msg, err := jsonparser.GetString(body, "SMSMessageData", "Message"); err == nil {
		logger.From(ctx).Debug("sms accepted", "recipients", len(to), "summary", msg)
	}
	return &Result{Via: ViaSDK, Payload: body}, nil
}

type airtimeRecipient struct {
	PhoneNumber string `json:"phoneNumber"`
	Amount      string `json:"amount"`
}

// SendAirtime tops up a single number. The amount goes over the wire as "<CUR> <amount>".
func (c *Client) SendAirtime(ctx context.Context, req AirtimeRequest) (*Result, error) {
	phone := strings.TrimSpace(req.PhoneNumber)
	if phone == "" {
		return nil, ErrNoRecipients
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if c.apiKey == "" {
		return nil, &AirtimeError{Err: ErrMissingCredentials}
	}
	currency := strings.ToUpper(strings.TrimSpace(req.CurrencyCode))
	if currency == "" {
		currency = DefaultCurrency
	}

	recipients := jsonx.MustMarshal([]airtimeRecipient{{
		PhoneNumber: phone,
		Amount:      currency + " " + req.Amount.String(),
	}})
	form := url.Values{
		"username":   {c.username},
		"recipients": {string(recipients)},
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := checkResponse(c.postForm(ctx, c.httpClient, c.apiBase+"/airtime/send", form))
	if err != nil {
		return nil, &AirtimeError{Err: err}
	}

	// a 2xx can still carry a per-recipient failure
	if status, _ := jsonparser.GetString(body, "responses", "[0]", "status"); status == "Failed" {
		msg, _ := jsonparser.GetString(body, "responses", "[0]", "errorMessage")
		return nil, &AirtimeError{Err: &ProviderError{Message: msg}}
	}
	return &Result{Via: ViaSDK, Payload: body}, nil
}

func (c *Client) postForm(ctx context.Context, client *http.Client, endpoint string, form url.Values) (*httpx.Trace, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apiKey", c.apiKey)

	return httpx.DoTrace(client, req, nil, nil, -1)
}

// checkResponse turns a trace into the provider body or a typed failure.
func checkResponse(trace *httpx.Trace, err error) (json.RawMessage, error) {
	if err != nil {
		return nil, err
	}
	if trace == nil || trace.Response == nil {
		return nil, errors.New("no response from carrier")
	}

	body := trace.ResponseBody
	status := trace.Response.StatusCode
	if status < 200 || status > 299 {
		return nil, &ProviderError{StatusCode: status, Message: providerMessage(body)}
	}
	if msg, err := jsonparser.GetString(body, "errorMessage"); err == nil && msg != "" && msg != "None" {
		return nil, &ProviderError{StatusCode: status, Message: msg}
	}
	return asJSON(body), nil
}

func providerMessage(body []byte) string {
	for _, key := range []string{"errorMessage", "message", "error"} {
		if msg, err := jsonparser.GetString(body, key); err == nil && msg != "" {
			return msg
		}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return "empty response"
	}
	return msg
}

// asJSON keeps JSON bodies as-is and quotes anything else so it can be embedded in a response.
func asJSON(body []byte) json.RawMessage {
	if len(body) > 0 && json.Valid(body) {
		return json.RawMessage(body)
	}
	return json.RawMessage(jsonx.MustMarshal(strings.TrimSpace(string(body))))
}

func newClientRequestID() string {
	return uuid.NewString()
}
