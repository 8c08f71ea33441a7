package types

// TransferSignal is the keypress that routes a call to a human agent
const TransferSignal = "*"

// CommandPayload is the data attached to an outbound keypress command
type CommandPayload struct {
	CustomerInfo  CallerProfile    `json:"customer_info"`
	FinancialInfo FinancialProfile `json:"financial_info"`
}

// OutboundCommand is the control message forwarded to the telephony
// platform. A command with an empty CallID must never be sent.
type OutboundCommand struct {
	CallID    string
	Subdomain string
	Signal    string // single control character, e.g. "*"
	Payload   *CommandPayload
}
