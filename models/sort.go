package models

import "sort"

// SortField is the closed set of columns an asset collection can be ordered
// by. Each field maps to an explicit comparator; there is no dynamic
// string-key dispatch.
type SortField int

const (
	SortByDailyVolumeQuote SortField = iota
	SortByPrice
	SortByPriceChangePercent
	SortByOpenInterestQuote
	SortByDailyTrades
	SortBySymbol
)

// comparators return a negative value when a orders before b ascending.
// nil numeric fields order below any concrete value.
var comparators = map[SortField]func(a, b *AssetSnapshot) int{
	SortByDailyVolumeQuote: func(a, b *AssetSnapshot) int {
		return compareFloat(&a.DailyVolumeQuote, &b.DailyVolumeQuote)
	},
	SortByPrice: func(a, b *AssetSnapshot) int {
		return compareFloat(a.Price, b.Price)
	},
	SortByPriceChangePercent: func(a, b *AssetSnapshot) int {
		return compareFloat(a.PriceChangePercent24h, b.PriceChangePercent24h)
	},
	SortByOpenInterestQuote: func(a, b *AssetSnapshot) int {
		return compareFloat(a.OpenInterestQuote, b.OpenInterestQuote)
	},
	SortByDailyTrades: func(a, b *AssetSnapshot) int {
		switch {
		case a.DailyTrades < b.DailyTrades:
			return -1
		case a.DailyTrades > b.DailyTrades:
			return 1
		}
		return 0
	},
	SortBySymbol: func(a, b *AssetSnapshot) int {
		switch {
		case a.Symbol < b.Symbol:
			return -1
		case a.Symbol > b.Symbol:
			return 1
		}
		return 0
	},
}

func compareFloat(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}

// SortAssets orders the collection in place by the given field. The sort is
// stable so ties preserve the existing order.
func SortAssets(assets []*AssetSnapshot, field SortField, descending bool) {
	cmp, ok := comparators[field]
	if !ok {
		return
	}
	sort.SliceStable(assets, func(i, j int) bool {
		c := cmp(assets[i], assets[j])
		if descending {
			return c > 0
		}
		return c < 0
	})
}
