// Package sentiment turns social-sentiment tool results into canonical
// SentimentRecords. Provider payloads arrive as plain JSON, as markdown
// with an embedded JSON block, or as markdown alone; Normalize accepts all three.
package sentiment

import (
	"math"
	"strings"
	"time"

	"github.com/signaldesk/signaldesk/internal/models"
)

// Defaults applied to fields no extractor could recover.
const (
	DefaultSentimentScore = 0.5
	DefaultDataSource     = "LunarCrush Social Sentiment"
	DefaultCacheStatus    = "Fresh Data"
	DefaultModelID        = "unknown"
	DefaultPlatform       = "unknown"
)

// partial is the output of one extraction stage. Nil pointers are unset.
type partial struct {
	topic             *string
	summary           *string
	score             *float64
	postsCount        *int64
	totalEngagement   *int64
	postsInLast24h    *int64
	averageEngagement *float64
	topEngagement     *int64
	trendingPosts     []models.TrendingPost
	hasTrendingPosts  bool
	tweetSuggestions  []string
	hasTweets         bool
	cacheStatus       *string
	modelID           *string
	dataSource        *string
	cached            *bool
	timestamp         *int64
	providerError     *string
}

// fill copies every field of o that p has not set yet.
func (p *partial) fill(o partial) {
	fillPtr(&p.topic, o.topic)
	fillPtr(&p.summary, o.summary)
	fillPtr(&p.score, o.score)
	fillPtr(&p.postsCount, o.postsCount)
	fillPtr(&p.totalEngagement, o.totalEngagement)
	fillPtr(&p.postsInLast24h, o.postsInLast24h)
	fillPtr(&p.averageEngagement, o.averageEngagement)
	fillPtr(&p.topEngagement, o.topEngagement)
	fillPtr(&p.cacheStatus, o.cacheStatus)
	fillPtr(&p.modelID, o.modelID)
	fillPtr(&p.dataSource, o.dataSource)
	fillPtr(&p.cached, o.cached)
	fillPtr(&p.timestamp, o.timestamp)
	fillPtr(&p.providerError, o.providerError)
	if !p.hasTrendingPosts && o.hasTrendingPosts {
		p.trendingPosts, p.hasTrendingPosts = o.trendingPosts, true
	}
	if !p.hasTweets && o.hasTweets {
		p.tweetSuggestions, p.hasTweets = o.tweetSuggestions, true
	}
}

func fillPtr[T any](dst **T, src *T) {
	if *dst == nil && src != nil {
		*dst = src
	}
}

// stage is one link in the extraction chain. A terminal stage that matches
// ends the chain; a non-terminal one lets later stages fill remaining gaps.
type stage struct {
	name     string
	extract  func(raw string) (partial, bool)
	terminal bool
}

var stages = []stage{
	{name: "json", extract: fromJSONDocument, terminal: true},
	{name: "embedded_json", extract: fromEmbeddedJSON},
	{name: "markdown", extract: fromMarkdown},
}

// Normalize converts raw provider text to a SentimentRecord. It fails only
// when the text is empty; anything else degrades to defaults.
func Normalize(raw, requestedTopic string, now time.Time) (models.SentimentRecord, error) {
	record, _, err := normalize(raw, requestedTopic, now)
	return record, err
}

func normalize(raw, requestedTopic string, now time.Time) (models.SentimentRecord, []string, error) {
	if strings.TrimSpace(raw) == "" {
		return models.SentimentRecord{}, nil, &models.UnparseableResponseError{Provider: models.ProviderSentiment, Tool: ToolSocialSentiment}
	}

	var (
		p       partial
		matched []string
	)
	for _, st := range stages {
		out, ok := st.extract(raw)
		if !ok {
			continue
		}
		matched = append(matched, st.name)
		p.fill(out)
		if st.terminal {
			break
		}
	}

	return p.record(requestedTopic, now), matched, nil
}

// record applies defaults and range rules to produce the canonical shape.
func (p partial) record(requestedTopic string, now time.Time) models.SentimentRecord {
	r := models.SentimentRecord{
		Topic:            strings.ToUpper(strings.TrimSpace(requestedTopic)),
		SentimentScore:   DefaultSentimentScore,
		TrendingPosts:    []models.TrendingPost{},
		TweetSuggestions: []string{},
		CacheStatus:      DefaultCacheStatus,
		ModelID:          DefaultModelID,
		DataSource:       DefaultDataSource,
		Timestamp:        now.UnixMilli(),
	}

	if p.topic != nil && strings.TrimSpace(*p.topic) != "" {
		r.Topic = strings.ToUpper(strings.TrimSpace(*p.topic))
	}
	if p.summary != nil {
		r.Summary = strings.TrimSpace(*p.summary)
	}
	if p.score != nil {
		r.SentimentScore = NormalizeScore(*p.score)
	}
	r.PostsCount = nonNegative(p.postsCount)
	r.TotalEngagement = nonNegative(p.totalEngagement)
	r.PostsInLast24h = nonNegative(p.postsInLast24h)
	r.TopEngagement = nonNegative(p.topEngagement)
	if p.averageEngagement != nil && *p.averageEngagement > 0 {
		r.AverageEngagement = *p.averageEngagement
	}
	if p.hasTrendingPosts && p.trendingPosts != nil {
		r.TrendingPosts = p.trendingPosts
	}
	if p.hasTweets && p.tweetSuggestions != nil {
		r.TweetSuggestions = p.tweetSuggestions
	}
	if p.cacheStatus != nil && *p.cacheStatus != "" {
		r.CacheStatus = *p.cacheStatus
	}
	if p.modelID != nil && *p.modelID != "" {
		r.ModelID = *p.modelID
	}
	if p.dataSource != nil && *p.dataSource != "" {
		r.DataSource = *p.dataSource
	}
	if p.cached != nil {
		r.Cached = *p.cached
	}
	if p.timestamp != nil && *p.timestamp > 0 {
		r.Timestamp = *p.timestamp
	}
	if p.providerError != nil {
		r.ProviderError = *p.providerError
	}
	return r
}

// NormalizeScore maps both 0-100 and 0-1 provider conventions onto [0,1].
// Values above 1 are divided by 100; the result is clamped.
func NormalizeScore(v float64) float64 {
	if math.IsNaN(v) {
		return DefaultSentimentScore
	}
	if v > 1 {
		v /= 100
	}
	return math.Max(0, math.Min(1, v))
}

func nonNegative(v *int64) int64 {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}
