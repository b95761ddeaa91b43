package sentiment

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/signaldesk/signaldesk/internal/jsonnum"
	"github.com/signaldesk/signaldesk/internal/models"
)

// Each field lists its gjson paths in reconciliation order: the direct
// top-level name, then the analytics.* path, then a same-meaning sibling.
var (
	pathsTopic             = []string{"topic", "symbol"}
	pathsSummary           = []string{"summary", "analytics.summary"}
	pathsScore             = []string{"sentimentScore", "analytics.sentimentScore", "sentiment"}
	pathsPostsCount        = []string{"postsCount", "analytics.postsCount", "analytics.posts24h"}
	pathsTotalEngagement   = []string{"totalEngagement", "analytics.totalEngagement", "engagement"}
	pathsPostsInLast24h    = []string{"postsInLast24h", "analytics.posts24h", "postsCount"}
	pathsAverageEngagement = []string{"averageEngagement", "analytics.averageEngagement"}
	pathsTopEngagement     = []string{"topEngagement", "analytics.topEngagement"}
	pathsTrendingPosts     = []string{"trendingPosts", "analytics.trendingPosts", "posts"}
	pathsTweetSuggestions  = []string{"tweetSuggestions"}
	pathsCacheStatus       = []string{"cacheStatus"}
	pathsModelID           = []string{"model", "modelId"}
	pathsDataSource        = []string{"dataSource"}
	pathsCached            = []string{"cached"}
	pathsTimestamp         = []string{"timestamp"}
)

// fromJSONDocument succeeds when the whole payload is a JSON object.
func fromJSONDocument(raw string) (partial, bool) {
	doc, ok := jsonObject(raw)
	if !ok {
		return partial{}, false
	}
	return fromJSON(doc), true
}

func jsonObject(raw string) (gjson.Result, bool) {
	trimmed := strings.TrimSpace(raw)
	if !gjson.Valid(trimmed) {
		return gjson.Result{}, false
	}
	doc := gjson.Parse(trimmed)
	if !doc.IsObject() {
		return gjson.Result{}, false
	}
	return doc, true
}

// fromJSON reads every field a JSON source can provide.
func fromJSON(doc gjson.Result) partial {
	var p partial

	p.topic = stringAt(doc, pathsTopic...)
	p.summary = stringAt(doc, pathsSummary...)
	p.score = jsonnum.Float(doc, pathsScore...)
	p.postsCount = jsonnum.Int(doc, pathsPostsCount...)
	p.totalEngagement = jsonnum.Int(doc, pathsTotalEngagement...)
	p.postsInLast24h = jsonnum.Int(doc, pathsPostsInLast24h...)
	p.averageEngagement = jsonnum.Float(doc, pathsAverageEngagement...)
	p.topEngagement = jsonnum.Int(doc, pathsTopEngagement...)
	p.cacheStatus = stringAt(doc, pathsCacheStatus...)
	p.modelID = stringAt(doc, pathsModelID...)
	p.dataSource = stringAt(doc, pathsDataSource...)
	p.timestamp = jsonnum.Int(doc, pathsTimestamp...)

	if v, ok := present(doc, pathsCached...); ok && (v.Type == gjson.True || v.Type == gjson.False) {
		b := v.Bool()
		p.cached = &b
	}

	if v, ok := present(doc, pathsTrendingPosts...); ok && v.IsArray() {
		p.trendingPosts = trendingPostsFromJSON(v)
		p.hasTrendingPosts = true
	}

	if v, ok := present(doc, pathsTweetSuggestions...); ok && v.IsArray() {
		tweets := make([]string, 0, len(v.Array()))
		for _, item := range v.Array() {
			if s := strings.TrimSpace(item.String()); s != "" {
				tweets = append(tweets, s)
			}
		}
		p.tweetSuggestions = tweets
		p.hasTweets = true
	}

	if s := doc.Get("success"); s.Exists() && s.Type == gjson.False {
		msg := doc.Get("error").String()
		if msg == "" {
			msg = "provider reported failure"
		}
		p.providerError = &msg
	} else {
		p.providerError = stringAt(doc, "providerError")
	}

	return p
}

func trendingPostsFromJSON(arr gjson.Result) []models.TrendingPost {
	items := arr.Array()
	posts := make([]models.TrendingPost, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		post := models.TrendingPost{
			ID:          item.Get("id").String(),
			Title:       item.Get("title").String(),
			Platform:    item.Get("platform").String(),
			PublishedAt: item.Get("date").String(),
			Permalink:   item.Get("url").String(),
		}
		if post.ID != "" {
			if _, dup := seen[post.ID]; dup {
				continue
			}
			seen[post.ID] = struct{}{}
		}
		post.Content = item.Get("content").String()
		if post.Content == "" {
			post.Content = post.Title
		}
		if post.Platform == "" {
			post.Platform = DefaultPlatform
		}
		if v := jsonnum.Int(item, "interactions", "engagement"); v != nil && *v > 0 {
			post.EngagementCount = *v
		}
		if c := item.Get("creator"); c.IsObject() {
			post.Creator = &models.Creator{
				ID:              c.Get("id").String(),
				Handle:          c.Get("name").String(),
				DisplayName:     c.Get("displayName").String(),
				FollowerCount:   deref(jsonnum.Int(c, "followers")),
				AvatarURL:       c.Get("avatar").String(),
				InfluenceRank:   deref(jsonnum.Int(c, "rank")),
				Interactions24h: deref(jsonnum.Int(c, "interactions24h")),
			}
		}
		posts = append(posts, post)
	}
	return posts
}

// present returns the first path whose value exists and is not null.
func present(doc gjson.Result, paths ...string) (gjson.Result, bool) {
	for _, path := range paths {
		v := doc.Get(path)
		if v.Exists() && v.Type != gjson.Null {
			return v, true
		}
	}
	return gjson.Result{}, false
}

func stringAt(doc gjson.Result, paths ...string) *string {
	v, ok := present(doc, paths...)
	if !ok || v.Type != gjson.String {
		return nil
	}
	s := v.String()
	return &s
}

func deref(v *int64) int64 {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}
