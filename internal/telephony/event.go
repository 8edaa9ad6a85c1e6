package telephony

import (
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/buger/jsonparser"
)

const maxEventBody = 64 << 10

// VoiceEvent captures the subset of voice callback fields we act on or log.
// The carrier posts application/x-www-form-urlencoded; JSON bodies and GET queries
// (browser tests) are accepted as well.
type VoiceEvent struct {
	SessionID         string
	Direction         string
	IsActive          string
	CallerNumber      string
	DestinationNumber string
	Digits            string
	CallSessionState  string
	DurationInSeconds string
	Amount            string
	CurrencyCode      string
	Status            string
	HangupCause       string
}

var eventFields = []string{
	"sessionId", "direction", "isActive", "callerNumber", "destinationNumber",
	"dtmfDigits", "digits", "callSessionState", "durationInSeconds", "amount",
	"currencyCode", "status", "hangupCause",
}

// Active is false only when the carrier explicitly reports the call is over.
func (e VoiceEvent) Active() bool {
	return strings.TrimSpace(e.IsActive) != "0"
}

// LogAttrs is a compact, loggable summary of the event.
func (e VoiceEvent) LogAttrs() []any {
	attrs := []any{"session_id", e.SessionID, "is_active", e.IsActive}
	add := func(k, v string) {
		if v != "" {
			attrs = append(attrs, k, v)
		}
	}
	add("direction", e.Direction)
	add("caller", e.CallerNumber)
	add("destination", e.DestinationNumber)
	add("digits", e.Digits)
	add("call_state", e.CallSessionState)
	add("duration_s", e.DurationInSeconds)
	add("amount", e.Amount)
	add("currency", e.CurrencyCode)
	add("status", e.Status)
	add("hangup_cause", e.HangupCause)
	return attrs
}

func ParseVoiceEvent(r *http.Request) (VoiceEvent, error) {
	values, err := eventValues(r)
	if err != nil {
		return VoiceEvent{}, err
	}

	digits := values["dtmfDigits"]
	if digits == "" {
		digits = values["digits"]
	}
	return VoiceEvent{
		SessionID:         values["sessionId"],
		Direction:         values["direction"],
		IsActive:          values["isActive"],
		CallerNumber:      values["callerNumber"],
		DestinationNumber: values["destinationNumber"],
		Digits:            digits,
		CallSessionState:  values["callSessionState"],
		DurationInSeconds: values["durationInSeconds"],
		Amount:            values["amount"],
		CurrencyCode:      values["currencyCode"],
		Status:            values["status"],
		HangupCause:       values["hangupCause"],
	}, nil
}

func eventValues(r *http.Request) (map[string]string, error) {
	out := make(map[string]string, len(eventFields))

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" && r.Body != nil {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
		if err != nil {
			return nil, err
		}
		for _, k := range eventFields {
			if v, ok := jsonScalar(body, k); ok {
				out[k] = v
			}
		}
		// query parameters still count for JSON posts
		for _, k := range eventFields {
			if out[k] == "" {
				out[k] = strings.TrimSpace(r.URL.Query().Get(k))
			}
		}
		return out, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	for _, k := range eventFields {
		out[k] = strings.TrimSpace(r.Form.Get(k))
	}
	return out, nil
}

// jsonScalar reads a top level string, number or boolean as text.
func jsonScalar(body []byte, key string) (string, bool) {
	v, typ, _, err := jsonparser.Get(body, key)
	if err != nil {
		return "", false
	}
	switch typ {
	case jsonparser.String:
		s, err := jsonparser.ParseString(v)
		if err != nil {
			return "", false
		}
		return strings.TrimSpace(s), true
	case jsonparser.Number:
		return string(v), true
	case jsonparser.Boolean:
		if string(v) == "true" {
			return "1", true
		}
		return "0", true
	default:
		return "", false
	}
}
