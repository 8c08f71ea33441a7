package types

// EventKind classifies an inbound webhook event after dispatch
type EventKind string

const (
	KindIdentityRequest EventKind = "identity-request"
	KindDataSubmission  EventKind = "data-submission"
	KindSignalRelay     EventKind = "signal-relay"
	KindStatusUpdate    EventKind = "status-update"
	KindUnknown         EventKind = "unknown"
)

// Message types and function names on the voice platform wire
const (
	MessageTypeFunctionCall = "function-call"
	MessageTypeStatusUpdate = "status-update"

	FunctionExtractCallerInfo    = "extractCallerInfo"
	FunctionSendFinancialDetails = "sendFinancialDetails"
	FunctionSendKeypress         = "sendKeypress"
)

// WebhookRequest is the envelope the voice platform posts to the webhook
type WebhookRequest struct {
	Message WebhookMessage `json:"message"`
}

// WebhookMessage carries one call notification
type WebhookMessage struct {
	Type         string         `json:"type"`
	Call         *CallObject    `json:"call,omitempty"`
	FunctionCall *FunctionCall  `json:"functionCall,omitempty"`
	Status       map[string]any `json:"status,omitempty"`
}

// CallObject describes the in-progress call the event belongs to
type CallObject struct {
	TDUUID              string    `json:"td_uuid,omitempty"`
	Category            string    `json:"category,omitempty"`
	Subdomain           string    `json:"subdomain,omitempty"`
	PhoneCallProviderID string    `json:"phoneCallProviderId,omitempty"`
	Customer            *Customer `json:"customer,omitempty"`
}

// Customer holds the caller's number as the platform reports it
type Customer struct {
	Number string `json:"number"`
}

// FunctionCall is a tool invocation emitted by the voice assistant
type FunctionCall struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters"`
}

// CallEvent is one inbound notification, normalized for dispatch.
// Constructed from the webhook payload, consumed once, never persisted.
type CallEvent struct {
	Kind        EventKind
	CallID      string
	Phone       string
	Subdomain   string
	Category    string
	Attrs       map[string]any
	SyntheticID bool // CallID was generated because the payload had none
}
