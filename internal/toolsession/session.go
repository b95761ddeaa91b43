// Package toolsession manages long-lived tool-calling sessions to remote
// MCP providers. A Session owns at most one live handle; any transport
// failure discards it so the next call reconnects from scratch.
package toolsession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/time/rate"

	"github.com/signaldesk/signaldesk/internal/models"
)

// Observer receives connection and invocation outcomes, typically for metrics.
type Observer interface {
	ObserveConnect(provider string, err error)
	ObserveInvoke(provider, tool string, duration time.Duration, err error)
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRateLimit caps invocations per second. Zero or negative disables limiting.
func WithRateLimit(requestsPerSecond float64) Option {
	return func(s *Session) {
		if requestsPerSecond <= 0 {
			s.limiter = nil
			return
		}
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithObserver attaches an Observer.
func WithObserver(o Observer) Option {
	return func(s *Session) {
		s.observer = o
	}
}

// Session is the connection manager for a single provider.
type Session struct {
	provider string
	endpoint string
	dialer   Dialer
	limiter  *rate.Limiter
	observer Observer
	logger   *slog.Logger

	dialMu      sync.Mutex
	mu          sync.Mutex
	conn        Conn
	status      models.ConnectionStatus
	connectedAt time.Time
	lastErr     error
	dials       int
	invocations int64
	failures    int64
}

// New constructs a disconnected Session. No network activity happens until
// the first Connect or Invoke.
func New(provider, endpoint string, dialer Dialer, opts ...Option) *Session {
	s := &Session{
		provider: provider,
		endpoint: endpoint,
		dialer:   dialer,
		status:   models.ConnectionStatusDisconnected,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "toolsession", "provider", provider)
	return s
}

// Provider returns the provider name.
func (s *Session) Provider() string { return s.provider }

// Endpoint returns the provider endpoint.
func (s *Session) Endpoint() string { return s.endpoint }

// Connect opens a handle unless one is already live. A stale handle is
// released before dialing. On failure no handle is retained.
func (s *Session) Connect(ctx context.Context) error {
	_, err := s.acquire(ctx)
	return err
}

// acquire returns the live handle, dialing if there is none. dialMu
// serializes dials so at most one handle exists per session.
func (s *Session) acquire(ctx context.Context) (Conn, error) {
	s.dialMu.Lock()
	defer s.dialMu.Unlock()

	s.mu.Lock()
	if s.conn != nil && s.status == models.ConnectionStatusConnected && alive(s.conn) {
		conn := s.conn
		s.mu.Unlock()
		return conn, nil
	}
	if s.conn != nil {
		s.logger.Info("releasing stale session handle")
		s.closeLocked()
	}
	s.status = models.ConnectionStatusConnecting
	s.dials++
	s.mu.Unlock()

	start := time.Now()
	conn, err := s.dialer.Dial(ctx, s.endpoint)
	if s.observer != nil {
		s.observer.ObserveConnect(s.provider, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.conn = nil
		s.status = models.ConnectionStatusDisconnected
		s.lastErr = err
		s.logger.Error("connect failed", "endpoint", s.endpoint, "error", err)
		return nil, &models.ConnectionError{Provider: s.provider, Endpoint: s.endpoint, Op: "connect", Err: err}
	}

	s.conn = conn
	s.status = models.ConnectionStatusConnected
	s.connectedAt = time.Now()
	s.lastErr = nil
	s.logger.Info("connected", "endpoint", s.endpoint, "duration_ms", time.Since(start).Milliseconds())
	return conn, nil
}

// Invoke calls a tool, connecting first if needed, and returns the raw result.
// A transport failure tears the session down and is returned as a
// *models.ConnectionError. Results flagged isError are returned unchanged.
func (s *Session) Invoke(ctx context.Context, tool string, args map[string]any) (*mcp.CallToolResult, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s %s: rate limit wait: %w", s.provider, tool, err)
		}
	}

	conn, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = args

	start := time.Now()
	result, err := conn.CallTool(ctx, req)
	duration := time.Since(start)
	if s.observer != nil {
		s.observer.ObserveInvoke(s.provider, tool, duration, err)
	}

	s.mu.Lock()
	s.invocations++
	if err != nil {
		s.failures++
	}
	s.mu.Unlock()

	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			// Caller gave up; the handle itself is not known to be broken.
			return nil, fmt.Errorf("%s %s: %w", s.provider, tool, err)
		}
		s.logger.Warn("tool call failed, discarding session", "tool", tool, "duration_ms", duration.Milliseconds(), "error", err)
		s.discard(conn, err)
		return nil, &models.ConnectionError{Provider: s.provider, Endpoint: s.endpoint, Op: "invoke " + tool, Err: err}
	}

	s.logger.Debug("tool call completed",
		"tool", tool,
		"arg_keys", argKeys(args),
		"duration_ms", duration.Milliseconds(),
		"is_error", result != nil && result.IsError,
		"content_frames", contentFrames(result))
	return result, nil
}

// ListTools returns the tools the provider advertises.
func (s *Session) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}

	result, err := conn.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return nil, fmt.Errorf("%s list tools: %w", s.provider, err)
		}
		s.discard(conn, err)
		return nil, &models.ConnectionError{Provider: s.provider, Endpoint: s.endpoint, Op: "list tools", Err: err}
	}
	return result.Tools, nil
}

// Disconnect releases the handle. Safe to call when already disconnected.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		s.status = models.ConnectionStatusDisconnected
		return
	}
	s.closeLocked()
	s.logger.Info("disconnected")
}

// State returns a snapshot of the session.
func (s *Session) State() models.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := models.ConnectionState{
		Provider:    s.provider,
		Endpoint:    s.endpoint,
		Status:      s.status,
		Dials:       s.dials,
		Invocations: s.invocations,
		Failures:    s.failures,
	}
	if s.status == models.ConnectionStatusConnected {
		t := s.connectedAt
		state.ConnectedAt = &t
	}
	if s.lastErr != nil {
		state.LastError = s.lastErr.Error()
	}
	return state
}

// discard tears the session down only if conn is still the current handle,
// so a concurrent reconnect is never undone by a late failure report.
func (s *Session) discard(conn Conn, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != conn {
		return
	}
	s.closeLocked()
	s.lastErr = cause
}

func (s *Session) closeLocked() {
	if err := s.conn.Close(); err != nil {
		s.logger.Warn("error closing session handle", "error", err)
	}
	s.conn = nil
	s.status = models.ConnectionStatusDisconnected
	s.connectedAt = time.Time{}
}

func alive(conn Conn) bool {
	if l, ok := conn.(liveness); ok {
		return l.Alive()
	}
	return true
}

func argKeys(args map[string]any) []string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contentFrames(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	return len(result.Content)
}
