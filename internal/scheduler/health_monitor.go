package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/signaldesk/signaldesk/internal/models"
)

// Prober checks one provider.
type Prober interface {
	Probe(ctx context.Context) models.ProviderHealth
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) models.ProviderHealth

func (f ProberFunc) Probe(ctx context.Context) models.ProviderHealth { return f(ctx) }

// HealthMonitor probes every provider on a fixed interval and keeps the
// latest result per provider.
type HealthMonitor struct {
	probers       []Prober
	logger        *slog.Logger
	stopChan      chan struct{}
	stopOnce      sync.Once
	checkInterval time.Duration
	probeTimeout  time.Duration

	mu     sync.RWMutex
	latest []models.ProviderHealth
}

// NewHealthMonitor creates a monitor. interval must be positive to Start.
func NewHealthMonitor(interval time.Duration, logger *slog.Logger, probers ...Prober) *HealthMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := 30 * time.Second
	if interval > 0 && interval < timeout {
		timeout = interval
	}
	return &HealthMonitor{
		probers:       probers,
		logger:        logger.With("component", "health_monitor"),
		stopChan:      make(chan struct{}),
		checkInterval: interval,
		probeTimeout:  timeout,
	}
}

// Start runs the probe loop until Stop or ctx cancellation.
func (m *HealthMonitor) Start(ctx context.Context) {
	if m.checkInterval <= 0 {
		m.logger.Info("health monitor disabled")
		return
	}
	m.logger.Info("starting health monitor", "check_interval", m.checkInterval)
	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	// Run once immediately on start
	m.CheckNow(ctx)

	for {
		select {
		case <-ticker.C:
			m.CheckNow(ctx)
		case <-m.stopChan:
			m.logger.Info("health monitor stopped")
			return
		case <-ctx.Done():
			m.logger.Info("health monitor stopping due to context cancellation")
			return
		}
	}
}

// Stop stops the loop. It is safe to call more than once.
func (m *HealthMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

// CheckNow probes every provider concurrently, stores and returns the results
// in prober order.
func (m *HealthMonitor) CheckNow(ctx context.Context) []models.ProviderHealth {
	ctx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	results := make([]models.ProviderHealth, len(m.probers))
	var wg sync.WaitGroup
	for i, p := range m.probers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = p.Probe(ctx)
		}()
	}
	wg.Wait()

	for _, h := range results {
		if h.Healthy() {
			m.logger.Debug("provider healthy", "provider", h.Provider, "latency_ms", h.LatencyMs)
			continue
		}
		m.logger.Warn("provider unhealthy",
			"provider", h.Provider,
			"status", h.Status,
			"error", h.Error,
			"latency_ms", h.LatencyMs,
		)
	}

	m.mu.Lock()
	m.latest = results
	m.mu.Unlock()
	return results
}

// Latest returns the most recent results, or nil before the first check.
func (m *HealthMonitor) Latest() []models.ProviderHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.latest == nil {
		return nil
	}
	return append([]models.ProviderHealth(nil), m.latest...)
}
