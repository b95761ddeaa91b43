package models

import "time"

// Provider names for the two remote tool-providers.
const (
	ProviderMarket    = "market"
	ProviderSentiment = "sentiment"
)

// ConnectionStatus describes the lifecycle position of a tool session.
type ConnectionStatus string

const (
	ConnectionStatusDisconnected ConnectionStatus = "disconnected"
	ConnectionStatusConnecting   ConnectionStatus = "connecting"
	ConnectionStatusConnected    ConnectionStatus = "connected"
)

// ConnectionState is a point-in-time snapshot of one provider session.
type ConnectionState struct {
	Provider    string           `json:"provider"`
	Endpoint    string           `json:"endpoint"`
	Status      ConnectionStatus `json:"status"`
	ConnectedAt *time.Time       `json:"connected_at,omitempty"`
	LastError   string           `json:"last_error,omitempty"`
	Dials       int              `json:"dials"`       // connect attempts made over the process lifetime
	Invocations int64            `json:"invocations"` // tool calls issued
	Failures    int64            `json:"failures"`    // tool calls that failed at the transport level
}

// IsConnected reports whether the session currently holds a live handle.
func (s ConnectionState) IsConnected() bool {
	return s.Status == ConnectionStatusConnected
}
