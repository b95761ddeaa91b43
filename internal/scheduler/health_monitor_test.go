package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signaldesk/signaldesk/internal/models"
)

func staticProber(provider string, status models.HealthStatus, calls *atomic.Int32) Prober {
	return ProberFunc(func(ctx context.Context) models.ProviderHealth {
		calls.Add(1)
		return models.ProviderHealth{Provider: provider, Status: status}
	})
}

func TestCheckNowKeepsProberOrder(t *testing.T) {
	var calls atomic.Int32
	m := NewHealthMonitor(time.Minute, nil,
		staticProber(models.ProviderMarket, models.HealthStatusConnected, &calls),
		staticProber(models.ProviderSentiment, models.HealthStatusToolFailed, &calls),
	)
	assert.Nil(t, m.Latest())

	got := m.CheckNow(context.Background())
	require.Len(t, got, 2)
	assert.Equal(t, models.ProviderMarket, got[0].Provider)
	assert.Equal(t, models.HealthStatusToolFailed, got[1].Status)
	assert.Equal(t, got, m.Latest())
	assert.Equal(t, int32(2), calls.Load())
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	var calls atomic.Int32
	m := NewHealthMonitor(10*time.Millisecond, nil, staticProber("market", models.HealthStatusConnected, &calls))

	done := make(chan struct{})
	go func() {
		m.Start(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	m.Stop()
	m.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestStartDisabledReturnsImmediately(t *testing.T) {
	var calls atomic.Int32
	m := NewHealthMonitor(0, nil, staticProber("market", models.HealthStatusConnected, &calls))
	m.Start(context.Background())
	assert.Zero(t, calls.Load())
}

func TestStartHonoursContext(t *testing.T) {
	var calls atomic.Int32
	m := NewHealthMonitor(time.Hour, nil, staticProber("market", models.HealthStatusConnected, &calls))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		m.Start(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor ignored cancellation")
	}
}
