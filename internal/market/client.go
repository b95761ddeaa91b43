// Package market fetches market snapshots, category memberships and coin
// search results from the market-data tool provider.
package market

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/signaldesk/signaldesk/internal/models"
	"github.com/signaldesk/signaldesk/internal/toolsession"
)

// Provider tool names.
const (
	ToolCoinsMarkets = "get_coins_markets"
	ToolCoinDetails  = "get_id_coins"
	ToolCoinsList    = "get_coins_list"
)

const (
	DefaultVsCurrency       = "usd"
	DefaultCategoryPageSize = 10

	orderMarketCapDesc   = "market_cap_desc"
	maxSearchResults     = 10
	searchCandidateLimit = 20
)

// Invoker issues tool calls. *toolsession.Session satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, tool string, args map[string]any) (*mcp.CallToolResult, error)
}

// Option configures a Client.
type Option func(*Client)

// WithVsCurrency sets the quote currency.
func WithVsCurrency(currency string) Option {
	return func(c *Client) {
		if currency != "" {
			c.vsCurrency = strings.ToLower(currency)
		}
	}
}

// WithCategoryPageSize sets how many assets a category query returns.
func WithCategoryPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.categoryPageSize = n
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client is the market snapshot fetcher.
type Client struct {
	invoker          Invoker
	vsCurrency       string
	categoryPageSize int
	logger           *slog.Logger
}

// NewClient constructs a Client over invoker.
func NewClient(invoker Invoker, opts ...Option) *Client {
	c := &Client{
		invoker:          invoker,
		vsCurrency:       DefaultVsCurrency,
		categoryPageSize: DefaultCategoryPageSize,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "market")
	return c
}

// VsCurrency returns the quote currency used for requests.
func (c *Client) VsCurrency() string { return c.vsCurrency }

// InCurrency returns a copy of c that quotes prices in currency.
func (c *Client) InCurrency(currency string) *Client {
	cp := *c
	WithVsCurrency(currency)(&cp)
	return &cp
}

// GetMarketSnapshots returns snapshots for ids in provider order
// (market cap descending). Unknown ids are simply absent from the result.
func (c *Client) GetMarketSnapshots(ctx context.Context, ids []string) ([]models.MarketSnapshot, error) {
	ids = cleanIDs(ids)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one coin id is required", models.ErrInvalidInput)
	}

	args := map[string]any{
		"vs_currency":             c.vsCurrency,
		"ids":                     strings.Join(ids, ","),
		"order":                   orderMarketCapDesc,
		"per_page":                len(ids),
		"page":                    1,
		"sparkline":               false,
		"price_change_percentage": "24h",
	}
	return c.fetchSnapshots(ctx, args)
}

// GetCoinsByCategory returns the top assets of a provider category slug.
func (c *Client) GetCoinsByCategory(ctx context.Context, categoryID string) ([]models.MarketSnapshot, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return nil, fmt.Errorf("%w: category is required", models.ErrInvalidInput)
	}

	args := map[string]any{
		"vs_currency": c.vsCurrency,
		"category":    categoryID,
		"order":       orderMarketCapDesc,
		"per_page":    c.categoryPageSize,
		"page":        1,
		"sparkline":   false,
	}
	return c.fetchSnapshots(ctx, args)
}

// GetCategories returns the display names of the categories id belongs to,
// in the order the provider lists them.
func (c *Client) GetCategories(ctx context.Context, id string) ([]string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: coin id is required", models.ErrInvalidInput)
	}

	args := map[string]any{
		"id":             id,
		"community_data": false,
		"developer_data": false,
		"localization":   false,
		"market_data":    false,
		"sparkline":      false,
		"tickers":        false,
	}
	doc, err := c.call(ctx, ToolCoinDetails, args)
	if err != nil {
		return nil, err
	}
	if !doc.Exists() {
		return []string{}, nil
	}
	return decodeCategories(doc), nil
}

// SearchCoins looks up coins by symbol first, then falls back to matching
// the full coin list by name, symbol or id.
func (c *Client) SearchCoins(ctx context.Context, query string) ([]models.CoinSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", models.ErrInvalidInput)
	}

	bySymbol, err := c.fetchSnapshots(ctx, map[string]any{
		"vs_currency":    c.vsCurrency,
		"symbols":        strings.ToLower(query),
		"include_tokens": "all",
		"order":          orderMarketCapDesc,
		"per_page":       maxSearchResults,
		"page":           1,
		"sparkline":      false,
	})
	if err != nil {
		c.logger.Info("symbol search failed, falling back to name search", "query", query, "error", err)
	} else if len(bySymbol) > 0 {
		return searchResultsFromSnapshots(bySymbol), nil
	}

	doc, err := c.call(ctx, ToolCoinsList, map[string]any{
		"include_platform": false,
		"status":           "active",
	})
	if err != nil {
		return nil, err
	}

	candidates := rankCandidates(decodeCoinList(doc), query)
	if len(candidates) == 0 {
		return []models.CoinSearchResult{}, nil
	}
	if len(candidates) > searchCandidateLimit {
		candidates = candidates[:searchCandidateLimit]
	}

	ids := make([]string, len(candidates))
	for i, cand := range candidates {
		ids[i] = cand.ID
	}
	snapshots, err := c.fetchSnapshots(ctx, map[string]any{
		"vs_currency": c.vsCurrency,
		"ids":         strings.Join(ids, ","),
		"order":       orderMarketCapDesc,
		"per_page":    len(ids),
		"page":        1,
		"sparkline":   false,
	})
	if err != nil {
		c.logger.Warn("market data for search candidates unavailable", "query", query, "error", err)
	}
	byID := make(map[string]models.MarketSnapshot, len(snapshots))
	for _, s := range snapshots {
		byID[s.ID] = s
	}

	results := make([]models.CoinSearchResult, 0, maxSearchResults)
	for _, cand := range candidates {
		if len(results) == maxSearchResults {
			break
		}
		r := models.CoinSearchResult{ID: cand.ID, Name: cand.Name, Symbol: strings.ToUpper(cand.Symbol)}
		if s, ok := byID[cand.ID]; ok {
			price, mcap := s.CurrentPrice, s.MarketCap
			r.CurrentPrice, r.MarketCap, r.MarketCapRank = &price, &mcap, s.MarketCapRank
		}
		results = append(results, r)
	}
	return results, nil
}

func (c *Client) fetchSnapshots(ctx context.Context, args map[string]any) ([]models.MarketSnapshot, error) {
	doc, err := c.call(ctx, ToolCoinsMarkets, args)
	if err != nil {
		return nil, err
	}
	if !doc.Exists() {
		return []models.MarketSnapshot{}, nil
	}
	return decodeSnapshots(doc), nil
}

// coinListEntry is one row of the provider coin list.
type coinListEntry struct {
	ID     string
	Symbol string
	Name   string
}

// rankCandidates keeps entries whose name, symbol or id contains query and
// orders them: exact name, exact symbol, then simple ids without hyphens or spaces.
func rankCandidates(entries []coinListEntry, query string) []coinListEntry {
	q := strings.ToLower(query)
	var matched []coinListEntry
	for _, e := range entries {
		name, symbol, id := strings.ToLower(e.Name), strings.ToLower(e.Symbol), strings.ToLower(e.ID)
		if strings.Contains(name, q) || strings.Contains(symbol, q) || strings.Contains(id, q) {
			matched = append(matched, e)
		}
	}

	rank := func(e coinListEntry) int {
		switch {
		case strings.ToLower(e.Name) == q:
			return 0
		case strings.ToLower(e.Symbol) == q:
			return 1
		case !strings.Contains(e.ID, "-") && !strings.Contains(e.Name, " "):
			return 2
		default:
			return 3
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return rank(matched[i]) < rank(matched[j])
	})
	return matched
}

func searchResultsFromSnapshots(snapshots []models.MarketSnapshot) []models.CoinSearchResult {
	if len(snapshots) > maxSearchResults {
		snapshots = snapshots[:maxSearchResults]
	}
	results := make([]models.CoinSearchResult, 0, len(snapshots))
	for _, s := range snapshots {
		price, mcap := s.CurrentPrice, s.MarketCap
		results = append(results, models.CoinSearchResult{
			ID:            s.ID,
			Symbol:        s.Symbol,
			Name:          s.Name,
			MarketCapRank: s.MarketCapRank,
			CurrentPrice:  &price,
			MarketCap:     &mcap,
		})
	}
	return results
}

func cleanIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

var _ Invoker = (*toolsession.Session)(nil)
