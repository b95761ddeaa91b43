package models

import "time"

// HealthStatus is the outcome of a provider health probe.
type HealthStatus string

const (
	HealthStatusConnected  HealthStatus = "connected"
	HealthStatusToolFailed HealthStatus = "connected_but_tool_failed"
	HealthStatusError      HealthStatus = "error"
)

// ProviderHealth reports the result of probing one provider.
type ProviderHealth struct {
	Provider  string       `json:"provider"`
	Endpoint  string       `json:"endpoint"`
	Status    HealthStatus `json:"status"`
	Error     string       `json:"error,omitempty"`
	LatencyMs int64        `json:"latency_ms"`
	CheckedAt time.Time    `json:"checked_at"`
}

// Healthy reports whether the provider answered a tool call.
func (h ProviderHealth) Healthy() bool {
	return h.Status == HealthStatusConnected
}
