// Package analysis combines market data, sentiment and comparables for one
// token into an AnalysisReport with per-asset commentary.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/signaldesk/signaldesk/internal/models"
)

// MarketSource fetches market snapshots.
type MarketSource interface {
	GetMarketSnapshots(ctx context.Context, ids []string) ([]models.MarketSnapshot, error)
}

// SentimentSource fetches normalized sentiment for a topic.
type SentimentSource interface {
	GetSentiment(ctx context.Context, topic string) (models.SentimentRecord, error)
}

// ComparableSource selects valuation comparables for a token.
type ComparableSource interface {
	GetComparables(ctx context.Context, source models.SourceToken) ([]models.ComparisonProjection, error)
}

// Options configures an Analyzer. Zero values disable the optional parts.
type Options struct {
	Watchlist   []string
	Comparables ComparableSource
	LLM         Commentator
	Cache       *CommentaryCache
	Logger      *slog.Logger
}

// Analyzer is the request orchestrator behind the analysis endpoint.
type Analyzer struct {
	market      MarketSource
	sentiment   SentimentSource
	comparables ComparableSource
	llm         Commentator
	rules       RuleCommentator
	cache       *CommentaryCache
	watchlist   []string
	logger      *slog.Logger
	now         func() time.Time
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(market MarketSource, sentiment SentimentSource, opts Options) *Analyzer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		market:      market,
		sentiment:   sentiment,
		comparables: opts.Comparables,
		llm:         opts.LLM,
		cache:       opts.Cache,
		watchlist:   opts.Watchlist,
		logger:      logger.With("component", "analysis"),
		now:         time.Now,
	}
}

// Analyze fetches watchlist and token snapshots concurrently with the token's
// sentiment. A market failure fails the analysis; a sentiment failure is
// reported inside the report.
func (a *Analyzer) Analyze(ctx context.Context, tokenID string) (*models.AnalysisReport, error) {
	tokenID = strings.ToLower(strings.TrimSpace(tokenID))
	if tokenID == "" {
		return nil, fmt.Errorf("%w: token is required", models.ErrInvalidInput)
	}
	started := a.now()

	var (
		snapshots []models.MarketSnapshot
		sentiment models.SentimentResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snapshots, err = a.market.GetMarketSnapshots(gctx, a.coinIDs(tokenID))
		if err != nil {
			return fmt.Errorf("market data: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		sentiment = a.fetchSentiment(gctx, tokenID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &models.AnalysisReport{
		ID:          uuid.NewString(),
		TokenID:     tokenID,
		GeneratedAt: started.UTC(),
		Snapshots:   snapshots,
		Sentiment:   sentiment,
		Comparables: a.fetchComparables(ctx, tokenID, snapshots),
		Commentary:  make([]models.Commentary, 0, len(snapshots)),
	}
	for _, s := range snapshots {
		var record *models.SentimentRecord
		if sentiment.Available && s.ID == tokenID {
			record = sentiment.Record
		}
		report.Commentary = append(report.Commentary, a.comment(ctx, s, record))
	}
	report.Overview = BuildOverview(snapshots, report.Commentary)

	a.logger.Info("analysis complete",
		"report_id", report.ID,
		"token", tokenID,
		"snapshots", len(snapshots),
		"sentiment", sentiment.Available,
		"comparables", len(report.Comparables),
		"duration_ms", a.now().Sub(started).Milliseconds(),
	)
	return report, nil
}

func (a *Analyzer) coinIDs(tokenID string) []string {
	ids := make([]string, 0, len(a.watchlist)+1)
	for _, id := range a.watchlist {
		if id == tokenID {
			continue
		}
		ids = append(ids, id)
	}
	return append(ids, tokenID)
}

func (a *Analyzer) fetchSentiment(ctx context.Context, tokenID string) models.SentimentResult {
	record, err := a.sentiment.GetSentiment(ctx, tokenID)
	if err != nil {
		a.logger.Warn("sentiment unavailable", "token", tokenID, "error", err)
		return models.SentimentResult{Error: err.Error(), Retryable: models.IsRetryable(err)}
	}
	return models.SentimentResult{Available: true, Record: &record}
}

func (a *Analyzer) fetchComparables(ctx context.Context, tokenID string, snapshots []models.MarketSnapshot) []models.ComparisonProjection {
	if a.comparables == nil {
		return []models.ComparisonProjection{}
	}
	for _, s := range snapshots {
		if s.ID != tokenID || s.MarketCap <= 0 {
			continue
		}
		out, err := a.comparables.GetComparables(ctx, models.SourceToken{ID: s.ID, MarketCap: s.MarketCap, CurrentPrice: s.CurrentPrice})
		if err != nil {
			a.logger.Warn("comparables unavailable", "token", tokenID, "error", err)
			break
		}
		return out
	}
	return []models.ComparisonProjection{}
}

// comment uses the language model only for the asset that has sentiment,
// falling back to rules when the model is absent or fails.
func (a *Analyzer) comment(ctx context.Context, s models.MarketSnapshot, sentiment *models.SentimentRecord) models.Commentary {
	if a.llm == nil || sentiment == nil {
		return ruleCommentary(s, sentiment)
	}
	if cached, ok := a.cache.Get(s.ID); ok {
		return cached
	}

	c, err := a.llm.Comment(ctx, s, sentiment)
	if err != nil {
		a.logger.Warn("language model commentary failed, using rules", "token", s.ID, "error", err)
		return ruleCommentary(s, sentiment)
	}
	a.cache.Put(s.ID, c)
	return c
}
