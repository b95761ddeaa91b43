package sentiment

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/signaldesk/signaldesk/internal/models"
)

// Section headings the provider uses in its markdown report.
const (
	headingRawResponse = "Raw API Response"
	headingSummary     = "AI-Generated Summary"
	headingTrending    = "Trending Posts"
)

var (
	reTopic             = regexp.MustCompile(`(?i)#\s*(\w+)\s+Social\s+Sentiment`)
	reDataSource        = regexp.MustCompile(`\*\*Data Source:\*\*\s*(.+?)(?:\n|$)`)
	reTimestamp         = regexp.MustCompile(`\*\*Timestamp:\*\*\s*(\d+)`)
	reModel             = regexp.MustCompile(`\*\*Model:\*\*\s*(.+?)(?:\n|$)`)
	reCacheStatus       = regexp.MustCompile(`\*\*Cache Status:\*\*\s*(.+?)(?:\n|$)`)
	rePostsCount        = regexp.MustCompile(`\*\*Posts Count \(24h\):\*\*\s*(\d+(?:,\d+)*)`)
	reSentimentScore    = regexp.MustCompile(`\*\*Sentiment Score:\*\*\s*(\d+(?:\.\d+)?)`)
	reTotalEngagement   = regexp.MustCompile(`\*\*Total Engagement:\*\*\s*(\d+(?:,\d+)*)`)
	rePostsInLast24h    = regexp.MustCompile(`\*\*Posts in Last 24h:\*\*\s*(\d+(?:,\d+)*)`)
	reAverageEngagement = regexp.MustCompile(`\*\*Average Engagement:\*\*\s*(\d+(?:,\d+)*(?:\.\d+)?)`)
	reTopEngagement     = regexp.MustCompile(`\*\*Top Engagement:\*\*\s*(\d+(?:,\d+)*)`)

	rePostMarker     = regexp.MustCompile(`\d+\.\s+\*\*`)
	rePostTitle      = regexp.MustCompile(`^(.*?)\*\*`)
	rePostEngagement = regexp.MustCompile(`\*\*Engagement:\*\*\s*(\d+(?:,\d+)*)`)
	rePostPlatform   = regexp.MustCompile(`\*\*Platform:\*\*\s*(.+?)(?:\n|$)`)
	rePostDate       = regexp.MustCompile(`\*\*Date:\*\*\s*(.+?)(?:\n|$)`)
	rePostURL        = regexp.MustCompile(`\*\*(?:URL|Link):\*\*\s*(\S+)`)
)

// fromEmbeddedJSON finds the first fenced code block after the raw-response
// heading and reads it as a JSON source.
func fromEmbeddedJSON(raw string) (partial, bool) {
	block, ok := rawResponseBlock([]byte(raw))
	if !ok {
		return partial{}, false
	}
	doc, ok := jsonObject(block)
	if !ok {
		return partial{}, false
	}
	return fromJSON(doc), true
}

func rawResponseBlock(src []byte) (string, bool) {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var (
		afterHeading bool
		block        string
		found        bool
	)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if strings.Contains(nodeText(node, src), headingRawResponse) {
				afterHeading = true
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			if !afterHeading {
				return ast.WalkSkipChildren, nil
			}
			var buf bytes.Buffer
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(src))
			}
			block, found = buf.String(), true
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return block, found
}

func nodeText(n ast.Node, src []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(src))
			continue
		}
		sb.WriteString(nodeText(c, src))
	}
	return sb.String()
}

// fromMarkdown applies one labeled-line extractor per field. It always
// matches; fields with no label stay unset.
func fromMarkdown(raw string) (partial, bool) {
	var p partial

	if m := reTopic.FindStringSubmatch(raw); m != nil {
		topic := strings.ToUpper(m[1])
		p.topic = &topic
	}
	p.dataSource = matchString(reDataSource, raw)
	p.modelID = matchString(reModel, raw)
	p.cacheStatus = matchString(reCacheStatus, raw)
	p.timestamp = matchInt(reTimestamp, raw)
	p.postsCount = matchInt(rePostsCount, raw)
	p.score = matchFloat(reSentimentScore, raw)
	p.totalEngagement = matchInt(reTotalEngagement, raw)
	p.postsInLast24h = matchInt(rePostsInLast24h, raw)
	p.averageEngagement = matchFloat(reAverageEngagement, raw)
	p.topEngagement = matchInt(reTopEngagement, raw)

	if summary, ok := extractSummary(raw); ok {
		p.summary = &summary
	}
	if posts, ok := extractTrendingPosts(raw); ok {
		p.trendingPosts, p.hasTrendingPosts = posts, true
	}

	return p, true
}

// extractSummary returns the text between the summary heading and the
// trending-posts heading, minus nested headings and bold-only lines.
func extractSummary(raw string) (string, bool) {
	start := strings.Index(raw, headingSummary)
	if start < 0 {
		return "", false
	}
	nl := strings.IndexByte(raw[start:], '\n')
	if nl < 0 {
		return "", false
	}
	body := raw[start+nl+1:]

	end := strings.Index(body, headingTrending)
	if end < 0 {
		return "", false
	}
	body = body[:end]
	if i := strings.LastIndexByte(body, '\n'); i >= 0 {
		body = body[:i]
	} else {
		body = ""
	}

	var kept []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		if len(trimmed) > 4 && strings.HasPrefix(trimmed, "**") && strings.HasSuffix(trimmed, "**") {
			continue
		}
		kept = append(kept, line)
	}
	summary := strings.TrimSpace(strings.Join(kept, "\n"))
	return summary, summary != ""
}

// extractTrendingPosts parses the numbered list under the trending heading.
// Each entry starts with "N. **Title**" followed by bolded sub-labels.
func extractTrendingPosts(raw string) ([]models.TrendingPost, bool) {
	start := strings.Index(raw, headingTrending)
	if start < 0 {
		return nil, false
	}
	section := raw[start:]
	if nl := strings.IndexByte(section, '\n'); nl >= 0 {
		section = section[nl+1:]
	} else {
		return nil, false
	}
	if next := strings.Index(section, "\n## "); next >= 0 {
		section = section[:next]
	}

	entries := rePostMarker.Split(section, -1)
	if len(entries) < 2 {
		return nil, false
	}

	posts := make([]models.TrendingPost, 0, len(entries)-1)
	for _, entry := range entries[1:] {
		m := rePostTitle.FindStringSubmatch(entry)
		if m == nil {
			continue
		}
		title := strings.TrimSpace(m[1])
		post := models.TrendingPost{
			Title:    title,
			Content:  title,
			Platform: DefaultPlatform,
		}
		if v := matchInt(rePostEngagement, entry); v != nil {
			post.EngagementCount = *v
		}
		if v := matchString(rePostPlatform, entry); v != nil && *v != "" {
			post.Platform = *v
		}
		if v := matchString(rePostDate, entry); v != nil {
			post.PublishedAt = *v
		}
		if v := matchString(rePostURL, entry); v != nil {
			post.Permalink = *v
		}
		posts = append(posts, post)
	}
	return posts, len(posts) > 0
}

func matchString(re *regexp.Regexp, s string) *string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	v := strings.TrimSpace(m[1])
	return &v
}

func matchFloat(re *regexp.Regexp, s string) *float64 {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return nil
	}
	return &f
}

func matchInt(re *regexp.Regexp, s string) *int64 {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	i, err := strconv.ParseInt(strings.ReplaceAll(m[1], ",", ""), 10, 64)
	if err != nil {
		return nil
	}
	return &i
}
