package sentiment

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signaldesk/signaldesk/internal/models"
)

var fixedNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

const fence = "```"

const markdownOnlyReport = `# BTC Social Sentiment

**Data Source:** LunarCrush API v4
**Timestamp:** 1718000000000
**Model:** claude-sonnet-4
**Cache Status:** Cached (5m)

## 📊 Key Metrics
**Posts Count (24h):** 1,250
**Sentiment Score:** 78
**Total Engagement:** 3,400,000
**Posts in Last 24h:** 980
**Average Engagement:** 2,720
**Top Engagement:** 150,000

## 📝 AI-Generated Summary
**Overview**
Bitcoin sentiment is strongly positive.
Traders expect continuation.

## 🚀 Trending Posts

1. **Bitcoin breaks resistance**
   - **Engagement:** 12,000
   - **Platform:** twitter
   - **Date:** 2024-06-10

2. **Miners accumulate**
   - **Engagement:** 8,500
   - **Platform:** reddit
   - **Date:** 2024-06-09
`

var embeddedReport = `# ETH Social Sentiment

**Sentiment Score:** 40
**Cache Status:** Fresh Data

## 🔍 Raw API Response

` + fence + `json
{"sentimentScore": 91, "engagement": 5000,
 "analytics": {"posts24h": 300, "averageEngagement": 16.5, "topEngagement": 900},
 "trendingPosts": [{"id": "p1", "title": "ETH ETF inflows", "interactions": 700, "platform": "x",
   "creator": {"id": "c1", "name": "vitalik", "displayName": "Vitalik", "followers": 1000, "rank": 3}}]}
` + fence + `
`

func TestNormalizeCleanJSON(t *testing.T) {
	raw := `{"success":true,"sentimentScore":82,"postsCount":150,"trendingPosts":[]}`

	r, err := Normalize(raw, "btc", fixedNow)
	require.NoError(t, err)

	assert.InDelta(t, 0.82, r.SentimentScore, 1e-9)
	assert.Equal(t, int64(150), r.PostsCount)
	assert.NotNil(t, r.TrendingPosts)
	assert.Empty(t, r.TrendingPosts)
	assert.Equal(t, "BTC", r.Topic)
	assert.Equal(t, DefaultDataSource, r.DataSource)
	assert.Equal(t, DefaultCacheStatus, r.CacheStatus)
	assert.Equal(t, DefaultModelID, r.ModelID)
	assert.Equal(t, fixedNow.UnixMilli(), r.Timestamp)
	assert.Empty(t, r.ProviderError)
}

func TestNormalizeScoreScaling(t *testing.T) {
	for v := 2; v <= 100; v++ {
		r, err := Normalize(fmt.Sprintf(`{"sentimentScore":%d}`, v), "x", fixedNow)
		require.NoError(t, err)
		assert.InDelta(t, float64(v)/100, r.SentimentScore, 1e-9, "score %d", v)
		assert.GreaterOrEqual(t, r.SentimentScore, 0.0)
		assert.LessOrEqual(t, r.SentimentScore, 1.0)
	}

	for _, v := range []float64{0, 0.05, 0.5, 0.82, 1} {
		r, err := Normalize(fmt.Sprintf(`{"sentimentScore":%v}`, v), "x", fixedNow)
		require.NoError(t, err)
		assert.InDelta(t, v, r.SentimentScore, 1e-9, "score %v", v)
	}
}

func TestNormalizeScoreClamps(t *testing.T) {
	assert.Equal(t, 1.0, NormalizeScore(250))
	assert.Equal(t, 0.0, NormalizeScore(-3))
	assert.Equal(t, DefaultSentimentScore, NormalizeScore(nanValue()))
}

func nanValue() float64 {
	zero := 0.0
	return zero / zero
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := map[string]string{
		"json":     `{"topic":"sol","sentimentScore":0.64,"postsCount":12,"cached":true,"timestamp":1700000000000,"model":"m1","tweetSuggestions":["gm"]}`,
		"markdown": markdownOnlyReport,
		"embedded": embeddedReport,
	}

	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			first, err := Normalize(raw, "topic", fixedNow)
			require.NoError(t, err)

			encoded, err := json.Marshal(first)
			require.NoError(t, err)

			second, err := Normalize(string(encoded), "topic", fixedNow.Add(time.Hour))
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestNormalizeMarkdownOnly(t *testing.T) {
	r, matched, err := normalize(markdownOnlyReport, "btc", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"markdown"}, matched)

	assert.Equal(t, "BTC", r.Topic)
	assert.Equal(t, "LunarCrush API v4", r.DataSource)
	assert.Equal(t, int64(1718000000000), r.Timestamp)
	assert.Equal(t, "claude-sonnet-4", r.ModelID)
	assert.Equal(t, "Cached (5m)", r.CacheStatus)
	assert.Equal(t, int64(1250), r.PostsCount)
	assert.InDelta(t, 0.78, r.SentimentScore, 1e-9)
	assert.Equal(t, int64(3_400_000), r.TotalEngagement)
	assert.Equal(t, int64(980), r.PostsInLast24h)
	assert.InDelta(t, 2720.0, r.AverageEngagement, 1e-9)
	assert.Equal(t, int64(150_000), r.TopEngagement)
	assert.Equal(t, "Bitcoin sentiment is strongly positive.\nTraders expect continuation.", r.Summary)

	require.Len(t, r.TrendingPosts, 2)
	assert.Equal(t, models.TrendingPost{
		Title:           "Bitcoin breaks resistance",
		Content:         "Bitcoin breaks resistance",
		EngagementCount: 12_000,
		Platform:        "twitter",
		PublishedAt:     "2024-06-10",
	}, r.TrendingPosts[0])
	assert.Equal(t, "Miners accumulate", r.TrendingPosts[1].Title)
	assert.Equal(t, "reddit", r.TrendingPosts[1].Platform)
	assert.Equal(t, int64(8_500), r.TrendingPosts[1].EngagementCount)
}

func TestNormalizeMarkdownMissingLabelsDefaultToZero(t *testing.T) {
	raw := "# DOGE Social Sentiment\n\n**Posts Count (24h):** 42\n\nNothing else to report."

	r, err := Normalize(raw, "doge", fixedNow)
	require.NoError(t, err)

	assert.Equal(t, int64(42), r.PostsCount)
	assert.Zero(t, r.TotalEngagement)
	assert.Zero(t, r.PostsInLast24h)
	assert.Zero(t, r.AverageEngagement)
	assert.Zero(t, r.TopEngagement)
	assert.Equal(t, DefaultSentimentScore, r.SentimentScore)
	assert.Empty(t, r.Summary)
	assert.Empty(t, r.TrendingPosts)
	assert.Empty(t, r.TweetSuggestions)
}

func TestNormalizeEmbeddedJSONThenMarkdown(t *testing.T) {
	r, matched, err := normalize(embeddedReport, "eth", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"embedded_json", "markdown"}, matched)

	assert.InDelta(t, 0.91, r.SentimentScore, 1e-9, "block value wins over the labeled line")
	assert.Equal(t, int64(5000), r.TotalEngagement, "sibling engagement field")
	assert.Equal(t, int64(300), r.PostsInLast24h)
	assert.Equal(t, int64(300), r.PostsCount)
	assert.InDelta(t, 16.5, r.AverageEngagement, 1e-9)
	assert.Equal(t, int64(900), r.TopEngagement)
	assert.Equal(t, "ETH", r.Topic)
	assert.Equal(t, "Fresh Data", r.CacheStatus)

	require.Len(t, r.TrendingPosts, 1)
	post := r.TrendingPosts[0]
	assert.Equal(t, "p1", post.ID)
	assert.Equal(t, int64(700), post.EngagementCount)
	assert.Equal(t, "ETH ETF inflows", post.Content)
	require.NotNil(t, post.Creator)
	assert.Equal(t, "vitalik", post.Creator.Handle)
	assert.Equal(t, int64(1000), post.Creator.FollowerCount)
	assert.Equal(t, int64(3), post.Creator.InfluenceRank)
}

func TestNormalizeJSONReconciliation(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, r models.SentimentRecord)
	}{
		{
			name: "top-level wins over analytics",
			raw:  `{"totalEngagement":10,"analytics":{"totalEngagement":20},"engagement":30}`,
			check: func(t *testing.T, r models.SentimentRecord) {
				assert.Equal(t, int64(10), r.TotalEngagement)
			},
		},
		{
			name: "analytics wins over sibling",
			raw:  `{"analytics":{"totalEngagement":20},"engagement":30}`,
			check: func(t *testing.T, r models.SentimentRecord) {
				assert.Equal(t, int64(20), r.TotalEngagement)
			},
		},
		{
			name: "null counts as absent",
			raw:  `{"totalEngagement":null,"analytics":{"totalEngagement":null},"engagement":30}`,
			check: func(t *testing.T, r models.SentimentRecord) {
				assert.Equal(t, int64(30), r.TotalEngagement)
			},
		},
		{
			name: "numeric strings are accepted",
			raw:  `{"postsCount":"1,204","sentimentScore":"67"}`,
			check: func(t *testing.T, r models.SentimentRecord) {
				assert.Equal(t, int64(1204), r.PostsCount)
				assert.InDelta(t, 0.67, r.SentimentScore, 1e-9)
			},
		},
		{
			name: "negative values clamp to zero",
			raw:  `{"postsCount":-5,"averageEngagement":-1.5,"sentimentScore":-10}`,
			check: func(t *testing.T, r models.SentimentRecord) {
				assert.Zero(t, r.PostsCount)
				assert.Zero(t, r.AverageEngagement)
				assert.Zero(t, r.SentimentScore)
			},
		},
		{
			name: "success false records provider error",
			raw:  `{"success":false,"error":"topic not tracked"}`,
			check: func(t *testing.T, r models.SentimentRecord) {
				assert.Equal(t, "topic not tracked", r.ProviderError)
				assert.Equal(t, DefaultSentimentScore, r.SentimentScore)
			},
		},
		{
			name: "duplicate post ids keep first",
			raw:  `{"trendingPosts":[{"id":"a","title":"one","engagement":5},{"id":"a","title":"dup"},{"title":"no id"}]}`,
			check: func(t *testing.T, r models.SentimentRecord) {
				require.Len(t, r.TrendingPosts, 2)
				assert.Equal(t, "one", r.TrendingPosts[0].Title)
				assert.Equal(t, int64(5), r.TrendingPosts[0].EngagementCount)
				assert.Equal(t, DefaultPlatform, r.TrendingPosts[1].Platform)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Normalize(tt.raw, "topic", fixedNow)
			require.NoError(t, err)
			tt.check(t, r)
		})
	}
}

func TestNormalizeDegradesOnUnrecognizedText(t *testing.T) {
	r, err := Normalize("service is warming up, try later", "pepe", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "PEPE", r.Topic)
	assert.Equal(t, DefaultSentimentScore, r.SentimentScore)
	assert.Zero(t, r.PostsCount)
}

func TestNormalizeNonObjectJSONFallsThrough(t *testing.T) {
	r, matched, err := normalize(`[1,2,3]`, "ada", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"markdown"}, matched)
	assert.Equal(t, "ADA", r.Topic)
}

func TestNormalizeEmptyText(t *testing.T) {
	_, err := Normalize("  \n\t", "btc", fixedNow)
	var unparseable *models.UnparseableResponseError
	require.ErrorAs(t, err, &unparseable)
}
