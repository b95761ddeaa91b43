package models

// MarketSnapshot is the canonical per-asset market record.
// Pointer fields are populated only when the provider supplied them.
type MarketSnapshot struct {
	ID                    string  `json:"id"`
	Symbol                string  `json:"symbol"`
	Name                  string  `json:"name"`
	Image                 string  `json:"image,omitempty"`
	CurrentPrice          float64 `json:"currentPrice"`
	MarketCap             float64 `json:"marketCap"`
	MarketCapRank         int     `json:"marketCapRank"`
	Volume24h             float64 `json:"volume24h"`
	PriceChangePercent24h float64 `json:"priceChangePercent24h"`

	FullyDilutedValuation     *float64 `json:"fullyDilutedValuation,omitempty"`
	High24h                   *float64 `json:"high24h,omitempty"`
	Low24h                    *float64 `json:"low24h,omitempty"`
	PriceChange24h            *float64 `json:"priceChange24h,omitempty"`
	MarketCapChange24h        *float64 `json:"marketCapChange24h,omitempty"`
	MarketCapChangePercent24h *float64 `json:"marketCapChangePercent24h,omitempty"`
	CirculatingSupply         *float64 `json:"circulatingSupply,omitempty"`
	TotalSupply               *float64 `json:"totalSupply,omitempty"`
	MaxSupply                 *float64 `json:"maxSupply,omitempty"`
	AthPrice                  *float64 `json:"athPrice,omitempty"`
	AthChangePercent          *float64 `json:"athChangePercent,omitempty"`
	AthDate                   string   `json:"athDate,omitempty"`
	AtlPrice                  *float64 `json:"atlPrice,omitempty"`
	AtlChangePercent          *float64 `json:"atlChangePercent,omitempty"`
	AtlDate                   string   `json:"atlDate,omitempty"`
	LastUpdated               string   `json:"lastUpdated,omitempty"`
}

// CoinSearchResult is a lightweight match returned by coin search.
type CoinSearchResult struct {
	ID            string   `json:"id"`
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	MarketCapRank int      `json:"marketCapRank,omitempty"`
	CurrentPrice  *float64 `json:"currentPrice,omitempty"`
	MarketCap     *float64 `json:"marketCap,omitempty"`
}
