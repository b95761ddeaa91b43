package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/signaldesk/signaldesk/internal/models"
	"github.com/signaldesk/signaldesk/internal/toolsession"
)

// SessionRegistry is the session administration surface.
type SessionRegistry interface {
	States() []models.ConnectionState
	Reset(provider string) error
	ListTools(ctx context.Context, provider string) ([]mcp.Tool, error)
}

var _ SessionRegistry = (*toolsession.Registry)(nil)

// AdminHandler handles admin operations on provider sessions
type AdminHandler struct {
	sessions SessionRegistry
	health   HealthChecker
	logger   *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(sessions SessionRegistry, health HealthChecker, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		sessions: sessions,
		health:   health,
		logger:   logger,
	}
}

type toolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ListSessions handles GET /api/admin/sessions
func (h *AdminHandler) ListSessions(w http.ResponseWriter, _ *http.Request) {
	h.respond(w, http.StatusOK, map[string]any{"sessions": h.sessions.States()})
}

// ResetSession handles POST /api/admin/sessions/{provider}/reset. The next
// request to the provider reconnects.
func (h *AdminHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	if err := h.sessions.Reset(provider); err != nil {
		h.fail(w, provider, err)
		return
	}

	h.logger.Info("session reset", "provider", provider)
	h.respond(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "session reset",
		"provider": provider,
	})
}

// ListTools handles GET /api/admin/sessions/{provider}/tools
func (h *AdminHandler) ListTools(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	tools, err := h.sessions.ListTools(r.Context(), provider)
	if err != nil {
		h.fail(w, provider, err)
		return
	}

	infos := make([]toolInfo, 0, len(tools))
	for _, t := range tools {
		infos = append(infos, toolInfo{Name: t.Name, Description: t.Description})
	}
	h.respond(w, http.StatusOK, map[string]any{"provider": provider, "tools": infos})
}

// CheckHealth handles POST /api/admin/health/check and runs the probes now.
func (h *AdminHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, map[string]any{"health": h.health.CheckNow(r.Context())})
}

func (h *AdminHandler) fail(w http.ResponseWriter, provider string, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, toolsession.ErrUnknownProvider) {
		status = http.StatusNotFound
	} else {
		h.logger.Error("session operation failed", "provider", provider, "error", err)
	}
	h.respond(w, status, errorResponse{Error: err.Error(), Retryable: models.IsRetryable(err)})
}

func (h *AdminHandler) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
