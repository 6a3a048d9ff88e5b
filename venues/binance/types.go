// Package binance implements the Binance USD-M Futures depth and fill
// adapters (spec §4.3/§4.4): REST snapshot + U/u-sequenced delta stream
// (initialization mode A) and a listen-key private user-data stream.
package binance

import "encoding/json"

// depthSnapshot is the REST /fapi/v1/depth response.
type depthSnapshot struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

// combinedStreamFrame wraps every message on the combined streams URL.
type combinedStreamFrame struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// depthUpdateEvent is one "depthUpdate" delta frame.
type depthUpdateEvent struct {
	EventType    string     `json:"e"`
	EventTime    int64      `json:"E"`
	TransactTime int64      `json:"T"`
	Symbol       string     `json:"s"`
	FirstUpdate  int64      `json:"U"`
	FinalUpdate  int64      `json:"u"`
	Bids         [][]string `json:"b"`
	Asks         [][]string `json:"a"`
}

// listenKeyResponse is the POST/PUT listenKey REST response.
type listenKeyResponse struct {
	ListenKey string `json:"listenKey"`
}

// userDataEvent is the generic envelope for the listen-key stream; order
// trade updates are the only event type this adapter cares about.
// TransactTime here is the top-level "T" Binance sends as a sibling of
// "o" (spec §8 scenario 4's literal frame carries it only at this level).
type userDataEvent struct {
	EventType    string          `json:"e"`
	EventTime    int64           `json:"E"`
	TransactTime int64           `json:"T"`
	Order        orderTradeEvent `json:"o"`
}

// orderTradeEvent is the "o" payload of an ORDER_TRADE_UPDATE event
// (spec §8 scenario 4).
type orderTradeEvent struct {
	Symbol            string `json:"s"`
	OrderID           int64  `json:"i"`
	Side              string `json:"S"`
	OrderStatus       string `json:"X"`
	LastFilledQty     string `json:"l"`
	LastFilledPrice   string `json:"L"`
	CumulativeFillQty string `json:"z"`
	AvgPrice          string `json:"ap"`
	TradeID           int64  `json:"t"`
	Commission        string `json:"n"`
	CommissionAsset   string `json:"N"`
	TransactTime      int64  `json:"T"`
}
