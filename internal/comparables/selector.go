// Package comparables selects higher-capitalization peers of a token from its
// categories and projects the token's price at each peer's market cap.
package comparables

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/signaldesk/signaldesk/internal/models"
)

const (
	DefaultMaxCategories = 3
	selectionSize        = 3
)

// tierPercentiles are the pool positions sampled for each tier, ascending.
var tierPercentiles = []float64{0.2, 0.5, 0.8}

var tierLabels = []string{models.TierConservative, models.TierModerate, models.TierAmbitious}

// MarketSource is the slice of the market client the selector depends on.
type MarketSource interface {
	GetCategories(ctx context.Context, id string) ([]string, error)
	GetCoinsByCategory(ctx context.Context, categoryID string) ([]models.MarketSnapshot, error)
}

// Selector is the comparable selector.
type Selector struct {
	market        MarketSource
	maxCategories int
	logger        *slog.Logger
}

// NewSelector constructs a Selector. maxCategories <= 0 uses DefaultMaxCategories.
func NewSelector(market MarketSource, maxCategories int, logger *slog.Logger) *Selector {
	if maxCategories <= 0 {
		maxCategories = DefaultMaxCategories
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{
		market:        market,
		maxCategories: maxCategories,
		logger:        logger.With("component", "comparables"),
	}
}

// GetComparables returns up to three projections for source, ordered by
// ascending comparable market cap. A token without categories, or whose
// categories hold no larger peers, yields an empty slice and no error.
// Only the category lookup itself can fail the call.
func (s *Selector) GetComparables(ctx context.Context, source models.SourceToken) ([]models.ComparisonProjection, error) {
	if err := source.Validate(); err != nil {
		return nil, err
	}

	categories, err := s.market.GetCategories(ctx, source.ID)
	if err != nil {
		return nil, fmt.Errorf("category lookup for %s: %w", source.ID, err)
	}
	if len(categories) == 0 {
		s.logger.Info("no categories found", "token", source.ID)
		return []models.ComparisonProjection{}, nil
	}
	if len(categories) > s.maxCategories {
		categories = categories[:s.maxCategories]
	}

	perCategory, failed := partition(s.fetchCategories(ctx, categories))
	for _, r := range failed {
		s.logger.Warn("category fetch failed",
			"token", source.ID,
			"category", r.name,
			"category_id", r.slug,
			"error", r.err,
		)
	}
	pool := BuildPool(source, perCategory)
	if len(pool) == 0 {
		s.logger.Info("no upward comparables", "token", source.ID, "categories", len(categories))
		return []models.ComparisonProjection{}, nil
	}

	picked := Sample(pool)
	out := make([]models.ComparisonProjection, len(picked))
	for i, snap := range picked {
		p := models.NewComparisonProjection(source, snap)
		if len(picked) == selectionSize {
			p.Tier = tierLabels[i]
		}
		out[i] = p
	}

	s.logger.Debug("comparables selected",
		"token", source.ID,
		"categories", len(categories),
		"pool", len(pool),
		"selected", len(out),
	)
	return out, nil
}

// categoryResult is the outcome of one category fetch.
type categoryResult struct {
	name  string
	slug  string
	coins []models.MarketSnapshot
	err   error
}

// fetchCategories queries every category concurrently. Results are indexed by
// category position so that arrival order never affects the pool.
func (s *Selector) fetchCategories(ctx context.Context, categories []string) []categoryResult {
	results := make([]categoryResult, len(categories))
	var g errgroup.Group
	for i, name := range categories {
		g.Go(func() error {
			slug := CategoryID(name)
			coins, err := s.market.GetCoinsByCategory(ctx, slug)
			results[i] = categoryResult{name: name, slug: slug, coins: coins, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// partition splits fetch results into per-category coins, in category order,
// and the failures. A failed category contributes nothing to the pool.
func partition(results []categoryResult) ([][]models.MarketSnapshot, []categoryResult) {
	perCategory := make([][]models.MarketSnapshot, 0, len(results))
	var failed []categoryResult
	for _, r := range results {
		if r.err != nil {
			failed = append(failed, r)
			continue
		}
		perCategory = append(perCategory, r.coins)
	}
	return perCategory, failed
}

// BuildPool keeps snapshots larger than the source, excluding the source
// itself, deduplicated by id in category order and sorted by ascending market
// cap with id as the tie-break.
func BuildPool(source models.SourceToken, perCategory [][]models.MarketSnapshot) []models.MarketSnapshot {
	seen := make(map[string]struct{})
	var pool []models.MarketSnapshot
	for _, coins := range perCategory {
		for _, c := range coins {
			if c.ID == source.ID || c.MarketCap <= source.MarketCap {
				continue
			}
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			pool = append(pool, c)
		}
	}
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].MarketCap != pool[j].MarketCap {
			return pool[i].MarketCap < pool[j].MarketCap
		}
		return pool[i].ID < pool[j].ID
	})
	return pool
}

// Sample picks the entries at the 20th, 50th and 80th percentile positions of
// an ascending pool. Pools smaller than three are returned whole. Colliding
// picks are replaced by the first unselected entries, and the result is
// returned in pool order.
func Sample(pool []models.MarketSnapshot) []models.MarketSnapshot {
	n := len(pool)
	if n < selectionSize {
		return append([]models.MarketSnapshot(nil), pool...)
	}

	chosen := make(map[int]bool, selectionSize)
	for _, p := range tierPercentiles {
		idx := int(math.Floor(float64(n) * p))
		if idx > n-1 {
			idx = n - 1
		}
		chosen[idx] = true
	}
	for i := 0; i < n && len(chosen) < selectionSize; i++ {
		chosen[i] = true
	}

	out := make([]models.MarketSnapshot, 0, selectionSize)
	for i := 0; i < n; i++ {
		if chosen[i] {
			out = append(out, pool[i])
		}
	}
	return out
}
