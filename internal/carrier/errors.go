package carrier

import (
	"errors"
	"fmt"
)

var (
	ErrNoRecipients          = errors.New("at least one recipient is required")
	ErrEmptyMessage          = errors.New("message is required")
	ErrMissingCaller         = errors.New("caller number is required")
	ErrInvalidAmount         = errors.New("amount must be greater than zero")
	ErrMissingCredentials    = errors.New("carrier credentials are not configured")
	ErrWhatsAppNotConfigured = errors.New("whatsapp is not configured: set AT_WHATSAPP_API_URL and AT_API_KEY")
)

// ProviderError is a carrier answer that was received but reports failure.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("carrier returned %d: %s", e.StatusCode, e.Message)
}

type SendError struct {
	Err error
}

func (e *SendError) Error() string { return "sms send failed: " + e.Err.Error() }
func (e *SendError) Unwrap() error { return e.Err }

type AirtimeError struct {
	Err error
}

func (e *AirtimeError) Error() string { return "airtime send failed: " + e.Err.Error() }
func (e *AirtimeError) Unwrap() error { return e.Err }

// CallError is returned when both the primary and the REST fallback call paths fail.
type CallError struct {
	Primary  error
	Fallback error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("voice call failed: sdk: %v; rest: %v", e.Primary, e.Fallback)
}

func (e *CallError) Unwrap() []error { return []error{e.Primary, e.Fallback} }

type WhatsAppError struct {
	Err error
}

func (e *WhatsAppError) Error() string { return "whatsapp send failed: " + e.Err.Error() }
func (e *WhatsAppError) Unwrap() error { return e.Err }
