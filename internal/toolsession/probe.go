package toolsession

import (
	"context"
	"time"

	"github.com/signaldesk/signaldesk/internal/models"
)

// Probe checks provider reachability. It connects, then calls tool with args,
// or lists tools when tool is empty. A failed connect reports error; a failed
// or isError call on a live connection reports connected_but_tool_failed.
func (s *Session) Probe(ctx context.Context, tool string, args map[string]any) models.ProviderHealth {
	start := time.Now()
	health := models.ProviderHealth{
		Provider: s.provider,
		Endpoint: s.endpoint,
	}
	finish := func(status models.HealthStatus, err error) models.ProviderHealth {
		health.Status = status
		if err != nil {
			health.Error = err.Error()
		}
		health.LatencyMs = time.Since(start).Milliseconds()
		health.CheckedAt = time.Now().UTC()
		return health
	}

	if err := s.Connect(ctx); err != nil {
		return finish(models.HealthStatusError, err)
	}

	if tool == "" {
		if _, err := s.ListTools(ctx); err != nil {
			return finish(models.HealthStatusToolFailed, err)
		}
		return finish(models.HealthStatusConnected, nil)
	}

	result, err := s.Invoke(ctx, tool, args)
	if err != nil {
		return finish(models.HealthStatusToolFailed, err)
	}
	if result.IsError {
		return finish(models.HealthStatusToolFailed, &models.ToolError{Provider: s.provider, Tool: tool, Message: ErrorText(result)})
	}
	return finish(models.HealthStatusConnected, nil)
}
