package carrier

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

const (
	ViaSDK  = "sdk"
	ViaREST = "rest"

	DefaultCurrency = "KES"
)

// Carrier is the outbound surface of the carrier API used by handlers.
type Carrier interface {
	SendSMS(ctx context.Context, req SMSRequest) (*Result, error)
	SendAirtime(ctx context.Context, req AirtimeRequest) (*Result, error)
	Call(ctx context.Context, req CallRequest) (*Result, error)
}

// Result is a successful carrier answer. Payload is the provider body, untouched.
type Result struct {
	Via     string          `json:"via"`
	Payload json.RawMessage `json:"payload"`
}

type SMSRequest struct {
	To      Recipients
	Message string

	// From is a sender id or shortcode; empty lets the carrier pick.
	From string
	// LinkID ties a premium reply to the inbound message it answers.
	LinkID string
}

type AirtimeRequest struct {
	PhoneNumber  string
	Amount       decimal.Decimal
	CurrencyCode string
}

type CallRequest struct {
	From string
	To   Recipients
}

// WhatsAppRequest needs Message or Template.
type WhatsAppRequest struct {
	To       Recipients
	Message  string
	Template json.RawMessage
	MediaURL string
}
