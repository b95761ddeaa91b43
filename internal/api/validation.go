package api

import (
	"fmt"
	"strings"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

const maxCoinIDs = 50

// SimilarByCategoryRequest is the body of POST /api/similar-by-category.
type SimilarByCategoryRequest struct {
	CoinID       string   `json:"coinId"`
	MarketCap    float64  `json:"marketCap"`
	CurrentPrice *float64 `json:"currentPrice,omitempty"`
}

// Validate checks the request fields.
func (r SimilarByCategoryRequest) Validate() error {
	if strings.TrimSpace(r.CoinID) == "" {
		return ValidationError{Field: "coinId", Message: "coinId is required"}
	}
	if r.MarketCap <= 0 {
		return ValidationError{Field: "marketCap", Message: "marketCap must be positive"}
	}
	if r.CurrentPrice != nil && *r.CurrentPrice < 0 {
		return ValidationError{Field: "currentPrice", Message: "currentPrice must not be negative"}
	}
	return nil
}

// parseCoinIDs splits a comma-separated id list, dropping blanks.
func parseCoinIDs(raw string) ([]string, error) {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	if len(ids) == 0 {
		return nil, ValidationError{Field: "ids", Message: `query parameter "ids" is required`}
	}
	if len(ids) > maxCoinIDs {
		return nil, ValidationError{Field: "ids", Message: fmt.Sprintf("at most %d ids per request", maxCoinIDs)}
	}
	return ids, nil
}

// isCurrencyCode accepts short lowercase alphanumeric codes such as "usd" or "btc".
func isCurrencyCode(s string) bool {
	if len(s) < 2 || len(s) > 10 {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
