package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/signaldesk/signaldesk/internal/models"
)

func TestCommentaryCache(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewCommentaryCache(5 * time.Minute)
	cache.now = func() time.Time { return now }

	_, ok := cache.Get("bitcoin")
	assert.False(t, ok)

	cache.Put("bitcoin", models.Commentary{TokenID: "bitcoin", Signal: models.SignalBuy})
	got, ok := cache.Get("bitcoin")
	assert.True(t, ok)
	assert.Equal(t, models.SignalBuy, got.Signal)

	now = now.Add(5 * time.Minute)
	_, ok = cache.Get("bitcoin")
	assert.False(t, ok, "entry expires at the TTL")

	cache.Put("ethereum", models.Commentary{TokenID: "ethereum"})
	assert.Equal(t, 1, cache.Len(), "expired entries are dropped on write")
}

func TestCommentaryCacheDisabled(t *testing.T) {
	var nilCache *CommentaryCache
	nilCache.Put("bitcoin", models.Commentary{})
	_, ok := nilCache.Get("bitcoin")
	assert.False(t, ok)

	off := NewCommentaryCache(0)
	off.Put("bitcoin", models.Commentary{})
	assert.Equal(t, 0, off.Len())
}
