package models

// SentimentRecord is the canonical social-sentiment shape for one topic.
// Every numeric field is non-negative and SentimentScore lies in [0,1].
type SentimentRecord struct {
	Topic             string         `json:"topic"`
	Summary           string         `json:"summary"`
	SentimentScore    float64        `json:"sentimentScore"`
	PostsCount        int64          `json:"postsCount"`
	TotalEngagement   int64          `json:"totalEngagement"`
	PostsInLast24h    int64          `json:"postsInLast24h"`
	AverageEngagement float64        `json:"averageEngagement"`
	TopEngagement     int64          `json:"topEngagement"`
	TrendingPosts     []TrendingPost `json:"trendingPosts"`
	TweetSuggestions  []string       `json:"tweetSuggestions"`
	CacheStatus       string         `json:"cacheStatus"`
	ModelID           string         `json:"model"`
	DataSource        string         `json:"dataSource"`
	Cached            bool           `json:"cached"`
	Timestamp         int64          `json:"timestamp"`                // unix millis
	ProviderError     string         `json:"providerError,omitempty"` // set when the payload reported success=false
}

// TrendingPost is one ranked post inside a SentimentRecord.
type TrendingPost struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	EngagementCount int64    `json:"engagement"`
	Platform        string   `json:"platform"`
	PublishedAt     string   `json:"date"`
	Permalink       string   `json:"url"`
	Creator         *Creator `json:"creator,omitempty"`
}

// Creator is the author attribution attached to a trending post.
type Creator struct {
	ID              string `json:"id"`
	Handle          string `json:"name"`
	DisplayName     string `json:"displayName"`
	FollowerCount   int64  `json:"followers"`
	AvatarURL       string `json:"avatar"`
	InfluenceRank   int64  `json:"rank"`
	Interactions24h int64  `json:"interactions24h"`
}

// SentimentLabel buckets a score for display and commentary.
func (r SentimentRecord) SentimentLabel() string {
	switch {
	case r.SentimentScore >= 0.6:
		return "bullish"
	case r.SentimentScore <= 0.4:
		return "bearish"
	default:
		return "neutral"
	}
}
