package models

import "marketboard/numeric"

// SymbolMeta is the contract metadata from the exchange-info listing. It is
// authoritative for which symbols exist.
type SymbolMeta struct {
	Symbol       string `json:"symbol"`
	Pair         string `json:"pair"`
	BaseAsset    string `json:"baseAsset"`
	QuoteAsset   string `json:"quoteAsset"`
	ContractType string `json:"contractType"`
	Status       string `json:"status"`
}

// Ticker24h mirrors one element of the 24h ticker statistics array. Numeric
// fields arrive as strings and go through the numeric package before use.
type Ticker24h struct {
	Symbol             string        `json:"symbol"`
	LastPrice          numeric.Value `json:"lastPrice"`
	HighPrice          numeric.Value `json:"highPrice"`
	LowPrice           numeric.Value `json:"lowPrice"`
	PriceChangePercent numeric.Value `json:"priceChangePercent"`
	QuoteVolume        numeric.Value `json:"quoteVolume"`
	Volume             numeric.Value `json:"volume"`
	Count              numeric.Value `json:"count"`
}

// PremiumIndex mirrors one element of the mark-price/funding array. Funding
// fields are blank for instruments without a funding schedule.
type PremiumIndex struct {
	Symbol               string        `json:"symbol"`
	MarkPrice            numeric.Value `json:"markPrice"`
	IndexPrice           numeric.Value `json:"indexPrice"`
	EstimatedSettlePrice numeric.Value `json:"estimatedSettlePrice"`
	LastFundingRate      numeric.Value `json:"lastFundingRate"`
	NextFundingTime      int64         `json:"nextFundingTime"`
}

// OpenInterestResponse is the per-symbol open-interest reading, denominated
// in base units.
type OpenInterestResponse struct {
	Symbol       string        `json:"symbol"`
	OpenInterest numeric.Value `json:"openInterest"`
	Time         int64         `json:"time"`
}

// DepthResponse is the raw depth listing: each level is a [price, quantity]
// pair whose element encoding is not guaranteed.
type DepthResponse struct {
	LastUpdateID int64             `json:"lastUpdateId"`
	Bids         [][]numeric.Value `json:"bids"`
	Asks         [][]numeric.Value `json:"asks"`
}

// WsMiniTicker is one element of the batched mini-ticker stream payload. The
// pipeline consumes only the symbol and the close price.
type WsMiniTicker struct {
	EventType  string        `json:"e"`
	EventTime  int64         `json:"E"`
	Symbol     string        `json:"s"`
	ClosePrice numeric.Value `json:"c"`
}
