// Package app assembles provider sessions and services from configuration.
// Both binaries share it.
package app

import (
	"context"
	"log/slog"

	"github.com/signaldesk/signaldesk/internal/analysis"
	"github.com/signaldesk/signaldesk/internal/comparables"
	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/market"
	"github.com/signaldesk/signaldesk/internal/models"
	"github.com/signaldesk/signaldesk/internal/scheduler"
	"github.com/signaldesk/signaldesk/internal/sentiment"
	"github.com/signaldesk/signaldesk/internal/toolsession"
)

// Services holds the wired application graph.
type Services struct {
	Sessions    *toolsession.Registry
	Sentiment   *sentiment.Service
	Market      *market.Client
	Comparables *comparables.Selector
	Analyzer    *analysis.Analyzer
	Monitor     *scheduler.HealthMonitor
}

// Build wires sessions and services. Sessions connect lazily, so Build does
// no network I/O. observer may be nil.
func Build(cfg *config.Config, dialer toolsession.Dialer, observer toolsession.Observer, logger *slog.Logger) (*Services, error) {
	opts := []toolsession.Option{
		toolsession.WithLogger(logger),
		toolsession.WithRateLimit(cfg.Providers.RequestsPerSecond),
	}
	if observer != nil {
		opts = append(opts, toolsession.WithObserver(observer))
	}

	marketSession := toolsession.New(models.ProviderMarket, cfg.Providers.MarketURL, dialer, opts...)
	sentimentSession := toolsession.New(models.ProviderSentiment, cfg.Providers.SentimentURL, dialer, opts...)

	registry := toolsession.NewRegistry()
	for _, s := range []*toolsession.Session{marketSession, sentimentSession} {
		if err := registry.Register(s); err != nil {
			return nil, err
		}
	}

	sentimentSvc := sentiment.NewService(sentimentSession, logger)
	marketClient := market.NewClient(marketSession,
		market.WithVsCurrency(cfg.Providers.VsCurrency),
		market.WithCategoryPageSize(cfg.Analysis.CategoryPageSize),
		market.WithLogger(logger),
	)
	selector := comparables.NewSelector(marketClient, cfg.Analysis.MaxCategories, logger)

	analyzerOpts := analysis.Options{
		Watchlist:   cfg.Analysis.Watchlist,
		Comparables: selector,
		Logger:      logger,
	}
	if cfg.OpenAI.APIKey != "" {
		analyzerOpts.LLM = analysis.NewOpenAICommentator(analysis.OpenAIConfig{
			APIKey:      cfg.OpenAI.APIKey,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.OpenAI.Temperature,
			MaxTokens:   cfg.OpenAI.MaxTokens,
		}, logger)
		analyzerOpts.Cache = analysis.NewCommentaryCache(cfg.Analysis.CommentaryCacheTTL)
		logger.Info("language model commentary enabled", "model", cfg.OpenAI.Model)
	} else {
		logger.Info("OPENAI_API_KEY not set, using rule-based commentary")
	}

	monitor := scheduler.NewHealthMonitor(cfg.Health.Interval, logger,
		scheduler.ProberFunc(sentimentSvc.Health),
		scheduler.ProberFunc(func(ctx context.Context) models.ProviderHealth {
			return marketSession.Probe(ctx, "", nil)
		}),
	)

	return &Services{
		Sessions:    registry,
		Sentiment:   sentimentSvc,
		Market:      marketClient,
		Comparables: selector,
		Analyzer:    analysis.NewAnalyzer(marketClient, sentimentSvc, analyzerOpts),
		Monitor:     monitor,
	}, nil
}

// Close stops the monitor and disconnects every session.
func (s *Services) Close() {
	s.Monitor.Stop()
	s.Sessions.CloseAll()
}
