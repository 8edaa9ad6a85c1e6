package audit

import "time"

// Event is an immutable record of one outbound carrier operation.
//
// Invariants:
// - Events are never updated or deleted.
// - Operation and Outcome are required.
// - ClientID is empty when the outbound API runs without tokens.
type Event struct {
	ID        string    `json:"id"`
	Operation Operation `json:"operation"`
	Outcome   Outcome   `json:"outcome"`

	ClientID  string `json:"client_id,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	// Via is the carrier path that served the request (sdk or rest).
	Via        string `json:"via,omitempty"`
	Recipients int    `json:"recipients"`
	Error      string `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type Operation string

const (
	OperationSMS      Operation = "sms"
	OperationBulkSMS  Operation = "sms_bulk"
	OperationAirtime  Operation = "airtime"
	OperationCall     Operation = "voice_call"
	OperationWhatsApp Operation = "whatsapp"
)

type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeFailed   Outcome = "failed"
)
