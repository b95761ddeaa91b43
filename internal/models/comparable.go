package models

import (
	"fmt"
	"strings"
)

// SourceToken identifies the asset a comparable search is run for.
type SourceToken struct {
	ID           string  `json:"id"`
	MarketCap    float64 `json:"marketCap"`
	CurrentPrice float64 `json:"currentPrice"`
}

// Validate checks the fields the comparable search depends on.
func (t SourceToken) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: token id is required", ErrInvalidInput)
	}
	if t.MarketCap <= 0 {
		return fmt.Errorf("%w: market cap must be positive", ErrInvalidInput)
	}
	if t.CurrentPrice < 0 {
		return fmt.Errorf("%w: current price must not be negative", ErrInvalidInput)
	}
	return nil
}

// Tier labels in ascending market-cap order.
const (
	TierConservative = "conservative"
	TierModerate     = "moderate"
	TierAmbitious    = "ambitious"
)

// ComparisonProjection is a valuation projection against one comparable asset.
type ComparisonProjection struct {
	Tier           string         `json:"tier,omitempty"`
	Comparable     MarketSnapshot `json:"comparable"`
	Multiplier     float64        `json:"multiplier"`     // comparable cap / source cap
	ProjectedPrice float64        `json:"projectedPrice"` // source price * multiplier
	CapRatio       float64        `json:"capRatio"`       // source cap / comparable cap
}

// NewComparisonProjection derives the projection of source onto comparable.
// Callers guarantee both market caps are positive.
func NewComparisonProjection(source SourceToken, comparable MarketSnapshot) ComparisonProjection {
	multiplier := comparable.MarketCap / source.MarketCap
	return ComparisonProjection{
		Comparable:     comparable,
		Multiplier:     multiplier,
		ProjectedPrice: source.CurrentPrice * multiplier,
		CapRatio:       source.MarketCap / comparable.MarketCap,
	}
}
