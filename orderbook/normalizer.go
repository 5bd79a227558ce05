// Package orderbook converts raw depth listings into price-sorted,
// cumulative-quantity ladders for display.
package orderbook

import (
	"sort"

	"marketboard/models"
	"marketboard/numeric"
)

// Normalize parses raw [price, quantity] pairs into depth levels with a
// running cumulative quantity. Ask levels are sorted ascending by price
// before accumulating because the upstream order is not guaranteed; bid
// levels keep their input order, which upstream already streams descending.
// A malformed element parses to zero rather than aborting the ladder, and a
// level without a positive price is dropped.
func Normalize(levels [][]numeric.Value, side models.Side) []models.DepthLevel {
	out := make([]models.DepthLevel, 0, len(levels))
	for _, raw := range levels {
		var price, quantity float64
		if len(raw) > 0 {
			price = numeric.FloatOrZero(raw[0].String())
		}
		if len(raw) > 1 {
			quantity = numeric.FloatOrZero(raw[1].String())
		}
		if price <= 0 || quantity < 0 {
			continue
		}
		out = append(out, models.DepthLevel{Price: price, Quantity: quantity})
	}

	if side == models.SideAsk {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Price < out[j].Price
		})
	}

	cumulative := 0.0
	for i := range out {
		cumulative += out[i].Quantity
		out[i].CumulativeQuantity = cumulative
	}
	return out
}

// BuildView normalizes both sides of a raw depth response. Each side is
// cumulative from its own first element; a shared scaling maximum is the
// caller's concern.
func BuildView(symbol string, depth *models.DepthResponse) *models.OrderBookView {
	return &models.OrderBookView{
		Symbol:       symbol,
		LastUpdateID: depth.LastUpdateID,
		Bids:         Normalize(depth.Bids, models.SideBid),
		Asks:         Normalize(depth.Asks, models.SideAsk),
	}
}
