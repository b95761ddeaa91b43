package market

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/signaldesk/signaldesk/internal/jsonnum"
	"github.com/signaldesk/signaldesk/internal/models"
	"github.com/signaldesk/signaldesk/internal/toolsession"
)

// call invokes tool and parses its first text frame as JSON. An empty
// result yields a zero gjson.Result (Exists() == false) and no error.
func (c *Client) call(ctx context.Context, tool string, args map[string]any) (gjson.Result, error) {
	result, err := c.invoker.Invoke(ctx, tool, args)
	if err != nil {
		return gjson.Result{}, err
	}
	if result != nil && result.IsError {
		return gjson.Result{}, &models.ToolError{Provider: models.ProviderMarket, Tool: tool, Message: toolsession.ErrorText(result)}
	}

	text, frames, ok := toolsession.FirstText(result)
	if frames == 0 || !ok || strings.TrimSpace(text) == "" {
		c.logger.Debug("empty market response", "tool", tool, "frames", frames)
		return gjson.Result{}, nil
	}
	text = strings.TrimSpace(text)
	if !gjson.Valid(text) {
		return gjson.Result{}, fmt.Errorf("%s %s: response is not valid JSON", models.ProviderMarket, tool)
	}
	return gjson.Parse(text), nil
}

// list unwraps common envelope shapes into the array of records.
func list(doc gjson.Result) []gjson.Result {
	if doc.IsArray() {
		return doc.Array()
	}
	if doc.IsObject() {
		for _, key := range []string{"data", "coins", "result", "items"} {
			if v := doc.Get(key); v.IsArray() {
				return v.Array()
			}
		}
		if doc.Get("id").Exists() {
			return []gjson.Result{doc}
		}
	}
	return nil
}

func decodeSnapshots(doc gjson.Result) []models.MarketSnapshot {
	items := list(doc)
	out := make([]models.MarketSnapshot, 0, len(items))
	for _, item := range items {
		if s, ok := snapshotFromJSON(item); ok {
			out = append(out, s)
		}
	}
	return out
}

func snapshotFromJSON(item gjson.Result) (models.MarketSnapshot, bool) {
	id := strings.TrimSpace(item.Get("id").String())
	if !item.IsObject() || id == "" {
		return models.MarketSnapshot{}, false
	}

	s := models.MarketSnapshot{
		ID:                    id,
		Symbol:                strings.ToUpper(item.Get("symbol").String()),
		Name:                  item.Get("name").String(),
		Image:                 item.Get("image").String(),
		CurrentPrice:          valueOr(jsonnum.Float(item, "current_price", "currentPrice", "price")),
		MarketCap:             valueOr(jsonnum.Float(item, "market_cap", "marketCap")),
		MarketCapRank:         int(math.Round(valueOr(jsonnum.Float(item, "market_cap_rank", "marketCapRank", "rank")))),
		Volume24h:             valueOr(jsonnum.Float(item, "total_volume", "volume24h", "volume_24h")),
		PriceChangePercent24h: valueOr(jsonnum.Float(item, "price_change_percentage_24h", "price_change_percentage_24h_in_currency", "priceChangePercent24h")),

		FullyDilutedValuation:     jsonnum.Float(item, "fully_diluted_valuation"),
		High24h:                   jsonnum.Float(item, "high_24h"),
		Low24h:                    jsonnum.Float(item, "low_24h"),
		PriceChange24h:            jsonnum.Float(item, "price_change_24h"),
		MarketCapChange24h:        jsonnum.Float(item, "market_cap_change_24h"),
		MarketCapChangePercent24h: jsonnum.Float(item, "market_cap_change_percentage_24h"),
		CirculatingSupply:         jsonnum.Float(item, "circulating_supply"),
		TotalSupply:               jsonnum.Float(item, "total_supply"),
		MaxSupply:                 jsonnum.Float(item, "max_supply"),
		AthPrice:                  jsonnum.Float(item, "ath"),
		AthChangePercent:          jsonnum.Float(item, "ath_change_percentage"),
		AthDate:                   item.Get("ath_date").String(),
		AtlPrice:                  jsonnum.Float(item, "atl"),
		AtlChangePercent:          jsonnum.Float(item, "atl_change_percentage"),
		AtlDate:                   item.Get("atl_date").String(),
		LastUpdated:               item.Get("last_updated").String(),
	}
	if s.MarketCap < 0 {
		s.MarketCap = 0
	}
	if s.Volume24h < 0 {
		s.Volume24h = 0
	}
	return s, true
}

func decodeCategories(doc gjson.Result) []string {
	cats := doc.Get("categories")
	if !cats.IsArray() {
		return []string{}
	}
	out := make([]string, 0, len(cats.Array()))
	for _, c := range cats.Array() {
		if c.Type != gjson.String {
			continue
		}
		if name := strings.TrimSpace(c.Str); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func decodeCoinList(doc gjson.Result) []coinListEntry {
	items := list(doc)
	out := make([]coinListEntry, 0, len(items))
	for _, item := range items {
		e := coinListEntry{
			ID:     item.Get("id").String(),
			Symbol: item.Get("symbol").String(),
			Name:   item.Get("name").String(),
		}
		if e.ID != "" {
			out = append(out, e)
		}
	}
	return out
}

func valueOr(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
