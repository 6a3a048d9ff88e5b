// Package aster implements the Aster depth and fill adapters (spec
// §4.3/§4.4). Aster's public wire format is Binance-family (combined
// streams, U/u sequenced depth deltas, lowercase stream names) while its
// private channel uses an HMAC "auth" handshake like Lighter rather than
// Binance's listen-key scheme.
package aster

// combinedStreamFrame is the {"stream":...,"data":...} envelope Aster
// shares with Binance's combined-stream endpoint.
type combinedStreamFrame struct {
	Stream string          `json:"stream"`
	Data   depthUpdateEvent `json:"data"`
}

// depthSnapshot is the REST GET /fapi/v1/depth response.
type depthSnapshot struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

// depthUpdateEvent is one depthUpdate websocket payload, field-identical
// to Binance's wire shape (spec §9 "Binance-family wire").
type depthUpdateEvent struct {
	EventType     string     `json:"e"`
	EventTime     int64      `json:"E"`
	Symbol        string     `json:"s"`
	FirstUpdate   int64      `json:"U"`
	FinalUpdate   int64      `json:"u"`
	TransactTime  int64      `json:"T"`
	Bids          [][]string `json:"b"`
	Asks          [][]string `json:"a"`
}

// authFrame is Aster's private-channel handshake response.
type authFrame struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// orderTradeFrame mirrors Binance's ORDER_TRADE_UPDATE user-data event.
type orderTradeFrame struct {
	EventType string          `json:"e"`
	EventTime int64           `json:"E"`
	Order     orderTradeEvent `json:"o"`
}

type orderTradeEvent struct {
	Symbol          string `json:"s"`
	Side            string `json:"S"`
	OrderStatus     string `json:"X"`
	LastFilledQty   string `json:"l"`
	AvgPrice        string `json:"ap"`
	OrderID         int64  `json:"i"`
	TradeID         int64  `json:"t"`
	Commission      string `json:"n"`
	CommissionAsset string `json:"N"`
	TransactTime    int64  `json:"T"`
}
