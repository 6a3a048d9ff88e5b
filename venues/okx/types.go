// Package okx implements the OKX swap depth and fill adapters (spec
// §4.3/§4.4): a websocket-tagged snapshot/delta public books channel and
// a base64-HMAC-authenticated private orders channel.
package okx

// wsEnvelope covers login acks, subscribe acks and error frames.
type wsEnvelope struct {
	Event string `json:"event"`
	Arg   *struct {
		Channel string `json:"channel"`
		InstID  string `json:"instId"`
	} `json:"arg,omitempty"`
	Code string `json:"code,omitempty"`
	Msg  string `json:"msg,omitempty"`
}

// booksFrame is one "books" channel public message.
type booksFrame struct {
	Arg struct {
		Channel string `json:"channel"`
		InstID  string `json:"instId"`
	} `json:"arg"`
	Action string           `json:"action"` // "snapshot" or "update"
	Data   []booksFrameData `json:"data"`
}

type booksFrameData struct {
	Bids [][]string `json:"bids"` // [price, qty, deprecated, numOrders]
	Asks [][]string `json:"asks"`
	TS   string     `json:"ts"`
	SeqID int64     `json:"seqId"`
}

// ordersFrame carries private order-state update events; fills are
// derived from entries whose fillSz is nonzero (spec §4.4 "fillSz != 0").
type ordersFrame struct {
	Arg struct {
		Channel string `json:"channel"`
	} `json:"arg"`
	Data []orderRecord `json:"data"`
}

type orderRecord struct {
	InstID      string `json:"instId"`
	OrdID       string `json:"ordId"`
	Side        string `json:"side"`   // "buy"/"sell"
	PosSide     string `json:"posSide"`
	State       string `json:"state"`  // "live","partially_filled","filled","canceled"
	FillSz      string `json:"fillSz"`
	FillPx      string `json:"fillPx"`
	TradeID     string `json:"tradeId"`
	FillTime    string `json:"fillTime"` // milliseconds, as a string
	FillFee     string `json:"fillFee"`
	FillFeeCcy  string `json:"fillFeeCcy"`
}
