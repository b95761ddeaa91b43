package toolsession

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signaldesk/signaldesk/internal/models"
)

func TestProbe(t *testing.T) {
	ctx := context.Background()

	t.Run("connected", func(t *testing.T) {
		s := newTestSession(&fakeDialer{})
		h := s.Probe(ctx, "get_social_sentiment", map[string]any{"topic": "test"})
		assert.Equal(t, models.HealthStatusConnected, h.Status)
		assert.True(t, h.Healthy())
		assert.Empty(t, h.Error)
		assert.False(t, h.CheckedAt.IsZero())
	})

	t.Run("connect failure", func(t *testing.T) {
		s := newTestSession(&fakeDialer{errs: []error{errors.New("dial tcp: refused")}})
		h := s.Probe(ctx, "get_social_sentiment", nil)
		assert.Equal(t, models.HealthStatusError, h.Status)
		assert.Contains(t, h.Error, "refused")
	})

	t.Run("tool flagged error", func(t *testing.T) {
		d := &fakeDialer{}
		s := newTestSession(d)
		require.NoError(t, s.Connect(ctx))
		d.conn(0).result = mcp.NewToolResultError("quota exceeded")

		h := s.Probe(ctx, "get_social_sentiment", nil)
		assert.Equal(t, models.HealthStatusToolFailed, h.Status)
		assert.Contains(t, h.Error, "quota exceeded")
	})

	t.Run("list tools when no tool given", func(t *testing.T) {
		d := &fakeDialer{}
		s := newTestSession(d)
		h := s.Probe(ctx, "", nil)
		assert.Equal(t, models.HealthStatusConnected, h.Status)
		assert.Empty(t, d.conn(0).calls)
	})
}
