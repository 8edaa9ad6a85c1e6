package carrier

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/buger/jsonparser"

	"atgateway/pkg/logger"
)

// Call places an outbound call. When the primary path fails for any reason the raw
// form is posted to the REST voice endpoint; both failing yields a *CallError.
func (c *Client) Call(ctx context.Context, req CallRequest) (*Result, error) {
	to := req.To.normalize()
	if len(to) == 0 {
		return nil, ErrNoRecipients
	}
	from := strings.TrimSpace(req.From)
	if from == "" {
		return nil, ErrMissingCaller
	}
	req = CallRequest{From: from, To: to}

	res, err := c.callPrimary(ctx, req)
	if err == nil {
		return res, nil
	}

	log := logger.From(ctx)
	log.Warn("voice call failed, attempting rest fallback", "error", err, "to", to.String())

	res, ferr := c.callREST(ctx, req)
	if ferr != nil {
		log.Error("voice rest fallback failed", "error", ferr, "to", to.String())
		return nil, &CallError{Primary: err, Fallback: ferr}
	}
	return res, nil
}

func (c *Client) callPrimary(ctx context.Context, req CallRequest) (*Result, error) {
	if c.apiKey == "" {
		return nil, ErrMissingCredentials
	}
	form := url.Values{
		"username":        {c.username},
		"from":            {req.From},
		"to":              {req.To.String()},
		"clientRequestId": {newClientRequestID()},
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := checkResponse(c.postForm(ctx, c.httpClient, c.voiceURL, form))
	if err != nil {
		return nil, err
	}
	if err := checkCallEntries(body); err != nil {
		return nil, err
	}
	return &Result{Via: ViaSDK, Payload: body}, nil
}

// callREST is the bare form post used when the primary path is unavailable.
func (c *Client) callREST(ctx context.Context, req CallRequest) (*Result, error) {
	if c.apiKey == "" {
		return nil, errors.New("carrier credentials missing for rest fallback")
	}
	form := url.Values{
		"username": {c.username},
		"from":     {req.From},
		"to":       {req.To.String()},
	}

	body, err := checkResponse(c.postForm(ctx, c.restClient, c.voiceRESTURL, form))
	if err != nil {
		return nil, err
	}
	return &Result{Via: ViaREST, Payload: body}, nil
}

// checkCallEntries fails when no entry was queued.
func checkCallEntries(body []byte) error {
	var queued, total int
	var lastStatus string
	_, _ = jsonparser.ArrayEach(body, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		total++
		status, _ := jsonparser.GetString(value, "status")
		if status == "Queued" {
			queued++
		} else {
			lastStatus = status
		}
	}, "entries")

	if total > 0 && queued == 0 {
		return &ProviderError{Message: "call not queued: " + lastStatus}
	}
	return nil
}
