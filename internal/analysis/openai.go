package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/signaldesk/signaldesk/internal/models"
)

// OpenAIConfig holds configuration for language-model commentary.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	BaseURL     string // empty uses the public API
	Timeout     time.Duration
}

const systemPrompt = `You are a cryptocurrency market analyst. Combine market data with social sentiment and respond with a single JSON object:
{"signal":"buy|sell|hold","confidence":0-100,"summary":"one or two sentences","rationale":["short points"],"support":number,"resistance":number}`

// OpenAICommentator asks a chat model for commentary in JSON mode.
type OpenAICommentator struct {
	client *openai.Client
	config OpenAIConfig
	retry  RetryPolicy
	logger *slog.Logger
}

// NewOpenAICommentator creates a commentator for cfg.
func NewOpenAICommentator(cfg OpenAIConfig, logger *slog.Logger) *OpenAICommentator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAICommentator{
		client: openai.NewClientWithConfig(clientCfg),
		config: cfg,
		retry:  OpenAIRetryPolicy(cfg.Timeout),
		logger: logger.With("component", "commentary", "model", cfg.Model),
	}
}

// llmCommentary is the JSON object the model is asked to return.
type llmCommentary struct {
	Signal     string   `json:"signal"`
	Confidence float64  `json:"confidence"`
	Summary    string   `json:"summary"`
	Rationale  []string `json:"rationale"`
	Support    float64  `json:"support"`
	Resistance float64  `json:"resistance"`
}

func (c *OpenAICommentator) Comment(ctx context.Context, snapshot models.MarketSnapshot, sentiment *models.SentimentRecord) (models.Commentary, error) {
	request := openai.ChatCompletionRequest{
		Model:               c.config.Model,
		Temperature:         c.config.Temperature,
		MaxCompletionTokens: c.config.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(snapshot, sentiment)},
		},
	}

	policy := c.retry
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		c.logger.Warn("openai call failed, retrying with backoff", "token", snapshot.ID, "attempt", attempt, "wait", wait, "error", err)
	}

	var resp openai.ChatCompletionResponse
	err := Retry(ctx, policy, func(ctx context.Context) error {
		start := time.Now()
		var callErr error
		resp, callErr = c.client.CreateChatCompletion(ctx, request)
		c.logger.Debug("chat completion",
			"token", snapshot.ID,
			"duration_ms", time.Since(start).Milliseconds(),
			"success", callErr == nil,
		)
		return callErr
	})
	if err != nil {
		return models.Commentary{}, fmt.Errorf("openai commentary for %s: %w", snapshot.ID, err)
	}
	if len(resp.Choices) == 0 {
		return models.Commentary{}, fmt.Errorf("openai commentary for %s: no choices returned", snapshot.ID)
	}

	var parsed llmCommentary
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return models.Commentary{}, fmt.Errorf("openai commentary for %s: decode response: %w", snapshot.ID, err)
	}

	c.logger.Info("commentary generated",
		"token", snapshot.ID,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return parsed.commentary(snapshot), nil
}

func (p llmCommentary) commentary(s models.MarketSnapshot) models.Commentary {
	c := models.Commentary{
		TokenID:    s.ID,
		Symbol:     s.Symbol,
		Signal:     parseSignal(p.Signal),
		Confidence: normalizeConfidence(p.Confidence),
		Summary:    strings.TrimSpace(p.Summary),
		Rationale:  p.Rationale,
		Support:    p.Support,
		Resistance: p.Resistance,
		Source:     models.CommentarySourceLLM,
	}
	if c.Support <= 0 {
		c.Support = s.CurrentPrice * supportFactor
	}
	if c.Resistance <= 0 {
		c.Resistance = s.CurrentPrice * resistanceFactor
	}
	return c
}

// parseSignal folds graded labels such as "strong_buy" onto the three signals.
func parseSignal(raw string) models.Signal {
	raw = strings.ToLower(raw)
	switch {
	case strings.Contains(raw, "buy"):
		return models.SignalBuy
	case strings.Contains(raw, "sell"):
		return models.SignalSell
	default:
		return models.SignalHold
	}
}

// normalizeConfidence accepts either a 0-1 or a 0-100 scale.
func normalizeConfidence(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		v /= 100
	}
	return math.Max(0, math.Min(1, v))
}

func buildPrompt(s models.MarketSnapshot, sentiment *models.SentimentRecord) string {
	var b strings.Builder
	b.WriteString("MARKET DATA\n")
	fmt.Fprintf(&b, "- Asset: %s (%s)\n", s.Name, s.Symbol)
	fmt.Fprintf(&b, "- Price: %g\n", s.CurrentPrice)
	fmt.Fprintf(&b, "- 24h change: %.2f%%\n", s.PriceChangePercent24h)
	fmt.Fprintf(&b, "- Market cap: %s (rank %d)\n", compactUSD(s.MarketCap), s.MarketCapRank)
	fmt.Fprintf(&b, "- 24h volume: %s\n", compactUSD(s.Volume24h))
	if s.High24h != nil && s.Low24h != nil {
		fmt.Fprintf(&b, "- 24h range: %g - %g\n", *s.Low24h, *s.High24h)
	}

	if sentiment != nil {
		fmt.Fprintf(&b, "\nSOCIAL SENTIMENT (%s)\n", sentiment.DataSource)
		fmt.Fprintf(&b, "- Score: %.2f (%s)\n", sentiment.SentimentScore, sentiment.SentimentLabel())
		fmt.Fprintf(&b, "- Posts: %d total, %d in last 24h\n", sentiment.PostsCount, sentiment.PostsInLast24h)
		fmt.Fprintf(&b, "- Engagement: %d total, %.0f average, %d top\n",
			sentiment.TotalEngagement, sentiment.AverageEngagement, sentiment.TopEngagement)
		for i, p := range sentiment.TrendingPosts {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "- Trending: %q (%d engagements on %s)\n", p.Title, p.EngagementCount, p.Platform)
		}
		if sentiment.Summary != "" {
			fmt.Fprintf(&b, "\nSENTIMENT SUMMARY\n%s\n", sentiment.Summary)
		}
	}
	return b.String()
}
