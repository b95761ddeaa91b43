package analysis

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/signaldesk/signaldesk/internal/models"
)

// Commentator produces commentary for one market snapshot. sentiment is nil
// when no sentiment is available for the asset.
type Commentator interface {
	Comment(ctx context.Context, snapshot models.MarketSnapshot, sentiment *models.SentimentRecord) (models.Commentary, error)
}

const (
	momentumThreshold = 5.0 // percent over 24h
	supportFactor     = 0.95
	resistanceFactor  = 1.05
)

// RuleCommentator derives commentary from 24h price momentum alone. It never fails.
type RuleCommentator struct{}

func (RuleCommentator) Comment(_ context.Context, snapshot models.MarketSnapshot, sentiment *models.SentimentRecord) (models.Commentary, error) {
	return ruleCommentary(snapshot, sentiment), nil
}

func ruleCommentary(s models.MarketSnapshot, sentiment *models.SentimentRecord) models.Commentary {
	c := models.Commentary{
		TokenID:    s.ID,
		Symbol:     s.Symbol,
		Signal:     models.SignalHold,
		Confidence: 0.4,
		Summary:    "No strong momentum. Monitor price action around current levels.",
		Support:    s.CurrentPrice * supportFactor,
		Resistance: s.CurrentPrice * resistanceFactor,
		Source:     models.CommentarySourceRules,
	}

	switch {
	case s.PriceChangePercent24h > momentumThreshold:
		c.Signal = models.SignalBuy
		c.Confidence = 0.6
		c.Summary = "Strong positive momentum detected. Consider accumulation on pullbacks."
	case s.PriceChangePercent24h < -momentumThreshold:
		c.Signal = models.SignalSell
		c.Confidence = 0.55
		c.Summary = "Strong negative momentum. Wait for stabilization before entry."
	}

	c.Rationale = append(c.Rationale, fmt.Sprintf("%s moved %+.2f%% in 24h on %s volume.",
		displaySymbol(s), s.PriceChangePercent24h, compactUSD(s.Volume24h)))
	if s.MarketCapRank > 0 {
		c.Rationale = append(c.Rationale, fmt.Sprintf("Ranked %s by market cap at %s.",
			humanize.Ordinal(s.MarketCapRank), compactUSD(s.MarketCap)))
	}
	if sentiment != nil {
		c.Rationale = append(c.Rationale, fmt.Sprintf("Social sentiment is %s (%.2f) across %s posts.",
			sentiment.SentimentLabel(), sentiment.SentimentScore, humanize.Comma(sentiment.PostsCount)))
	} else {
		c.Rationale = append(c.Rationale, "No sentiment data available; analysis uses price movement only.")
	}
	return c
}

func displaySymbol(s models.MarketSnapshot) string {
	if s.Symbol != "" {
		return s.Symbol
	}
	return s.ID
}

// compactUSD renders v as "$1.28 T" style text.
func compactUSD(v float64) string {
	return "$" + humanize.SIWithDigits(v, 2, "")
}
