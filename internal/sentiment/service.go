package sentiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/signaldesk/signaldesk/internal/models"
	"github.com/signaldesk/signaldesk/internal/toolsession"
)

// ToolSocialSentiment is the provider tool queried for a topic.
const ToolSocialSentiment = "get_social_sentiment"

const healthProbeTopic = "test"

// Caller is the slice of a tool session the service depends on.
type Caller interface {
	Invoke(ctx context.Context, tool string, args map[string]any) (*mcp.CallToolResult, error)
	Probe(ctx context.Context, tool string, args map[string]any) models.ProviderHealth
}

// topicVariations is the ordered spelling fallback for provider topic
// matching, which is case-sensitive in undocumented ways.
var topicVariations = []func(string) string{
	func(t string) string { return t },
	strings.ToUpper,
	strings.ToLower,
}

// Service fetches and normalizes sentiment for a topic.
type Service struct {
	caller Caller
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a Service over caller.
func NewService(caller Caller, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		caller: caller,
		logger: logger.With("component", "sentiment"),
		now:    time.Now,
	}
}

// Variations returns the distinct spellings tried for topic, in order.
func Variations(topic string) []string {
	out := make([]string, 0, len(topicVariations))
	seen := make(map[string]struct{}, len(topicVariations))
	for _, fn := range topicVariations {
		v := fn(topic)
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// GetSentiment tries each topic spelling in turn and normalizes the first
// result that came back without a transport failure or an isError flag.
// Attempts are sequential with no delay between them.
func (s *Service) GetSentiment(ctx context.Context, topic string) (models.SentimentRecord, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return models.SentimentRecord{}, fmt.Errorf("%w: topic is required", models.ErrInvalidInput)
	}

	var lastErr error
	for i, variant := range Variations(topic) {
		result, err := s.caller.Invoke(ctx, ToolSocialSentiment, map[string]any{"topic": variant})
		if err != nil {
			lastErr = err
			s.logger.Warn("sentiment attempt failed", "topic", variant, "attempt", i+1, "error", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if result.IsError {
			lastErr = &models.ToolError{Provider: models.ProviderSentiment, Tool: ToolSocialSentiment, Message: toolsession.ErrorText(result)}
			s.logger.Warn("sentiment attempt rejected by provider", "topic", variant, "attempt", i+1, "error", lastErr)
			continue
		}

		record, err := s.normalizeResult(result, topic)
		var toolErr *models.ToolError
		if errors.As(err, &toolErr) {
			lastErr = err
			s.logger.Warn("sentiment attempt reported failure in payload", "topic", variant, "attempt", i+1, "error", err)
			continue
		}
		if err != nil {
			return models.SentimentRecord{}, err
		}
		s.logger.Info("sentiment retrieved",
			"topic", record.Topic,
			"variant", variant,
			"score", record.SentimentScore,
			"posts", record.PostsCount,
			"trending_posts", len(record.TrendingPosts))
		return record, nil
	}

	return models.SentimentRecord{}, fmt.Errorf("sentiment for %q: all topic variations failed: %w", topic, lastErr)
}

func (s *Service) normalizeResult(result *mcp.CallToolResult, topic string) (models.SentimentRecord, error) {
	raw, frames, ok := toolsession.FirstText(result)
	if frames == 0 {
		return models.SentimentRecord{}, &models.NoContentError{Provider: models.ProviderSentiment, Tool: ToolSocialSentiment}
	}
	if !ok {
		return models.SentimentRecord{}, &models.UnparseableResponseError{Provider: models.ProviderSentiment, Tool: ToolSocialSentiment}
	}

	record, matched, err := normalize(raw, topic, s.now())
	if err != nil {
		return models.SentimentRecord{}, err
	}
	s.logger.Debug("sentiment payload normalized", "topic", topic, "stages", matched, "bytes", len(raw))
	if record.ProviderError != "" {
		return models.SentimentRecord{}, &models.ToolError{Provider: models.ProviderSentiment, Tool: ToolSocialSentiment, Message: record.ProviderError}
	}
	return record, nil
}

// Health probes the provider with a known topic.
func (s *Service) Health(ctx context.Context) models.ProviderHealth {
	return s.caller.Probe(ctx, ToolSocialSentiment, map[string]any{"topic": healthProbeTopic})
}
