package models

import "time"

// Signal is a trading stance attached to commentary.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

// CommentarySource records which commentator produced a Commentary.
type CommentarySource string

const (
	CommentarySourceLLM   CommentarySource = "llm"
	CommentarySourceRules CommentarySource = "rules"
)

// Commentary is the narrative analysis for one asset.
type Commentary struct {
	TokenID    string           `json:"tokenId"`
	Symbol     string           `json:"symbol"`
	Signal     Signal           `json:"signal"`
	Confidence float64          `json:"confidence"` // 0-1
	Summary    string           `json:"summary"`
	Rationale  []string         `json:"rationale,omitempty"`
	Support    float64          `json:"support"`
	Resistance float64          `json:"resistance"`
	Source     CommentarySource `json:"source"`
}

// SentimentResult carries a sentiment lookup that may have failed without
// failing the surrounding analysis.
type SentimentResult struct {
	Available bool             `json:"available"`
	Record    *SentimentRecord `json:"record,omitempty"`
	Error     string           `json:"error,omitempty"`
	Retryable bool             `json:"retryable,omitempty"`
}

// MarketOverview aggregates the snapshots of one analysis.
type MarketOverview struct {
	TotalMarketCap   float64 `json:"totalMarketCap"`
	TotalVolume24h   float64 `json:"totalVolume24h"`
	OverallSentiment string  `json:"overallSentiment"` // bullish, bearish or neutral
	Summary          string  `json:"summary"`
}

// AnalysisReport is the combined result returned for one analysis request.
type AnalysisReport struct {
	ID          string                 `json:"id"`
	TokenID     string                 `json:"tokenId"`
	GeneratedAt time.Time              `json:"generatedAt"`
	Snapshots   []MarketSnapshot       `json:"snapshots"`
	Sentiment   SentimentResult        `json:"sentiment"`
	Comparables []ComparisonProjection `json:"comparables"`
	Commentary  []Commentary           `json:"commentary"`
	Overview    MarketOverview         `json:"overview"`
}
