package models

// Side identifies one half of the order book.
type Side string

const (
	SideBid Side = "bid"
	SideAsk Side = "ask"
)

// DepthLevel is a single price level with its running cumulative quantity in
// display order.
type DepthLevel struct {
	Price              float64 `json:"price"`
	Quantity           float64 `json:"quantity"`
	CumulativeQuantity float64 `json:"cumulative_quantity"`
}

// OrderBookView is the normalized depth ladder for one symbol: bids in
// descending price order, asks ascending, each side cumulative from its own
// first element. It is rebuilt on every depth fetch and holds no state.
type OrderBookView struct {
	Symbol       string       `json:"symbol"`
	LastUpdateID int64        `json:"last_update_id"`
	Bids         []DepthLevel `json:"bids"`
	Asks         []DepthLevel `json:"asks"`
}
