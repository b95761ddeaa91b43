package analysis

import (
	"fmt"

	"github.com/signaldesk/signaldesk/internal/models"
)

// BuildOverview totals market cap and volume and derives the overall stance
// from signal counts: buys above 1.5x sells is bullish, the reverse bearish.
func BuildOverview(snapshots []models.MarketSnapshot, commentary []models.Commentary) models.MarketOverview {
	var o models.MarketOverview
	for _, s := range snapshots {
		o.TotalMarketCap += s.MarketCap
		o.TotalVolume24h += s.Volume24h
	}

	var buys, sells, holds int
	for _, c := range commentary {
		switch c.Signal {
		case models.SignalBuy:
			buys++
		case models.SignalSell:
			sells++
		default:
			holds++
		}
	}

	switch {
	case float64(buys) > float64(sells)*1.5:
		o.OverallSentiment = "bullish"
	case float64(sells) > float64(buys)*1.5:
		o.OverallSentiment = "bearish"
	default:
		o.OverallSentiment = "neutral"
	}

	o.Summary = fmt.Sprintf("Market Analysis: %d buy signals, %d sell signals, %d hold recommendations. Overall market sentiment is %s. Market cap: %s, 24h volume: %s.",
		buys, sells, holds, o.OverallSentiment, compactUSD(o.TotalMarketCap), compactUSD(o.TotalVolume24h))
	return o
}
