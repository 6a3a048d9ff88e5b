// Package bybit implements the Bybit v5 linear perpetual depth and fill
// adapters (spec §4.3/§4.4): a snapshot+delta tagged public stream
// (initialization mode B) and an HMAC-authenticated private stream.
package bybit

// wsEnvelope is the generic frame shape used by both public and private
// channels.
type wsEnvelope struct {
	Op      string `json:"op,omitempty"`
	Topic   string `json:"topic,omitempty"`
	Type    string `json:"type,omitempty"`
	Success *bool  `json:"success,omitempty"`
	RetMsg  string `json:"ret_msg,omitempty"`
}

// orderbookFrame is one orderbook.50.X public message.
type orderbookFrame struct {
	Topic string             `json:"topic"`
	Type  string             `json:"type"` // "snapshot" or "delta"
	TS    int64              `json:"ts"`
	Data  orderbookFrameData `json:"data"`
}

type orderbookFrameData struct {
	Symbol string     `json:"s"`
	Bids   [][]string `json:"b"`
	Asks   [][]string `json:"a"`
	UpdID  int64      `json:"u"`
	Seq    int64      `json:"seq"`
}

// executionFrame carries private execution (trade fill) events.
type executionFrame struct {
	Topic string            `json:"topic"`
	Data  []executionRecord `json:"data"`
}

type executionRecord struct {
	Symbol          string `json:"symbol"`
	OrderID         string `json:"orderId"`
	Side            string `json:"side"`
	ExecQty         string `json:"execQty"`
	ExecPrice       string `json:"execPrice"`
	ExecID          string `json:"execId"`
	ExecTime        string `json:"execTime"` // milliseconds, as a string
	ExecFee         string `json:"execFee"`
	FeeCurrency     string `json:"feeCurrency"`
	// FeeRate is genuinely a rate, not a currency code; kept separate
	// from FeeCurrency to avoid the source-level mislabeling flagged in
	// spec §9 ("Bybit execution feeRate is stored as commission_asset").
	FeeRate         string `json:"feeRate"`
}

// orderFrame is the shape of private order-state update events. The
// adapter does not parse these frames: fills are emitted only from
// execution-channel records, including when no execution record arrives.
type orderFrame struct {
	Topic string         `json:"topic"`
	Data  []orderRecord  `json:"data"`
}

type orderRecord struct {
	Symbol      string `json:"symbol"`
	OrderID     string `json:"orderId"`
	Side        string `json:"side"`
	OrderStatus string `json:"orderStatus"`
	CumExecQty  string `json:"cumExecQty"`
	AvgPrice    string `json:"avgPrice"`
	UpdatedTime string `json:"updatedTime"`
}
