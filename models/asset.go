package models

import "time"

// AssetSnapshot is the denormalized per-symbol view merged from the contract
// listing, the 24h ticker stats and the mark/funding feed. Pointer fields are
// nil when the exchange has no concept of the value for this instrument,
// which is not the same as zero.
type AssetSnapshot struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`

	Price       *float64 `json:"price"`
	High24h     *float64 `json:"high_24h"`
	Low24h      *float64 `json:"low_24h"`
	MarkPrice   *float64 `json:"mark_price"`
	IndexPrice  *float64 `json:"index_price"`
	OraclePrice *float64 `json:"oracle_price"`

	DailyVolumeQuote float64 `json:"daily_volume_quote"`
	DailyVolumeBase  float64 `json:"daily_volume_base"`
	DailyTrades      int64   `json:"daily_trades"`

	// OpenInterestQuote is nil until the symbol has been inside the
	// enrichment window at least once.
	OpenInterestQuote *float64 `json:"open_interest_quote"`

	FundingRate          *float64 `json:"funding_rate"`
	NextFundingTimestamp *int64   `json:"next_funding_timestamp"`

	PriceChangePercent24h *float64 `json:"price_change_percent_24h"`

	IconRef string `json:"icon_ref"`
}

// AggregateMetrics holds the plain sums over an asset collection. It is
// recomputed wholesale on every aggregation cycle, never maintained
// incrementally, so identical upstream responses produce identical values.
type AggregateMetrics struct {
	TotalDailyVolumeQuote  float64 `json:"total_daily_volume_quote"`
	TotalOpenInterestQuote float64 `json:"total_open_interest_quote"`
	TotalDailyTrades       int64   `json:"total_daily_trades"`
}

// PriceTick is a single price-only update from the push stream. Everything
// else the stream carries is ignored.
type PriceTick struct {
	Symbol string
	Price  float64
}

// TickBatch groups the ticks delivered in one push message. All ticks in a
// batch fold into a single collection transition.
type TickBatch struct {
	Ticks    []PriceTick
	Received time.Time
}
