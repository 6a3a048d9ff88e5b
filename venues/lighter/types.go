// Package lighter implements the Lighter depth and fill adapters (spec
// §4.3/§4.4): a REST-resolved market-id public order book channel and an
// HMAC-authenticated private session for account trades.
package lighter

// marketInfo is one entry of the REST market-id lookup table (Lighter
// addresses order books by integer market id, not by symbol, so every
// adapter must resolve the canonical symbol first).
type marketInfo struct {
	MarketID int    `json:"market_id"`
	Symbol   string `json:"symbol"`
}

type marketsResponse struct {
	Markets []marketInfo `json:"markets"`
}

// wsEnvelope covers subscription acks and the "connected" handshake
// frame that carries the session token.
type wsEnvelope struct {
	Type    string `json:"type"`
	Channel string `json:"channel,omitempty"`
	Token   string `json:"session_token,omitempty"`
}

// orderBookFrame is one order_book/<market_id> message.
type orderBookFrame struct {
	Type    string             `json:"type"` // "subscribed/order_book" or "update/order_book"
	Channel string             `json:"channel"`
	OrderBook orderBookPayload `json:"order_book"`
}

type orderBookPayload struct {
	Bids   []orderBookLevel `json:"bids"`
	Asks   []orderBookLevel `json:"asks"`
	Offset int64            `json:"offset"`
}

type orderBookLevel struct {
	Price    string `json:"price"`
	Quantity string `json:"size"`
}

// accountTradesFrame carries private trade events for the authenticated
// account.
type accountTradesFrame struct {
	Type    string        `json:"type"`
	Channel string        `json:"channel"`
	Trades  []tradeRecord `json:"trades"`
}

type tradeRecord struct {
	MarketID   int    `json:"market_id"`
	OrderID    string `json:"order_id"`
	Side       string `json:"side"` // "buy"/"sell"
	Price      string `json:"price"`
	Size       string `json:"size"`
	TradeID    string `json:"trade_id"`
	TimestampUS int64 `json:"timestamp_us"`
	Fee        string `json:"fee"`
	FeeAsset   string `json:"fee_asset"`
}
