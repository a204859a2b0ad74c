package gateway

// Events pushed to the browser.
const (
	EventHello          = "HELLO"
	EventStateUpdate    = "STATE_UPDATE"
	EventSessionExpired = "SESSION_EXPIRED"
)

// Events accepted from the browser.
const (
	// EventRefresh asks for an update on the next poll regardless of the
	// session's interval.
	EventRefresh = "REFRESH"
)

// CloseSessionExpired is the websocket close code sent after SESSION_EXPIRED.
const CloseSessionExpired = 4001

// Payload is the envelope for every websocket message.
type Payload struct {
	Event     string            `json:"event"`
	Fragments map[string]string `json:"fragments,omitempty"`
	Notice    string            `json:"notice,omitempty"`
}
