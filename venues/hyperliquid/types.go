// Package hyperliquid implements the Hyperliquid depth and fill adapters
// (spec §4.3/§4.4): an unauthenticated l2Book subscription per coin and a
// wallet-scoped userEvents subscription for private fills.
package hyperliquid

import "strings"

// toCoin converts a canonical BASEUSDT symbol to Hyperliquid's bare-coin
// wire form (spec §4.3 "coin is base asset (BTC); normalize outward as
// BASEUSDT").
func toCoin(symbol string) string {
	if strings.HasSuffix(symbol, "USDT") {
		return symbol[:len(symbol)-4]
	}
	return symbol
}

// fromCoin converts a Hyperliquid coin back to the canonical BASEUSDT form.
func fromCoin(coin string) string {
	return coin + "USDT"
}

// subscribeMessage is the generic {"method":"subscribe","subscription":{...}}
// envelope used for both public and wallet-scoped channels.
type subscribeMessage struct {
	Method       string       `json:"method"`
	Subscription subscription `json:"subscription"`
}

type subscription struct {
	Type string `json:"type"`
	Coin string `json:"coin,omitempty"`
	User string `json:"user,omitempty"`
}

// wsEnvelope is the outer {"channel":...,"data":...} shape every message
// arrives in.
type wsEnvelope struct {
	Channel string `json:"channel"`
}

// l2BookFrame carries one level-2 book snapshot; Hyperliquid always sends
// a full book rather than tagging snapshot/delta (spec §4.2 mode B,
// "every message replaces the book").
type l2BookFrame struct {
	Channel string      `json:"channel"`
	Data    l2BookData  `json:"data"`
}

type l2BookData struct {
	Coin   string          `json:"coin"`
	Time   int64           `json:"time"`
	Levels [2][]l2BookLevel `json:"levels"` // [0]=bids, [1]=asks
}

type l2BookLevel struct {
	Px string `json:"px"`
	Sz string `json:"sz"`
	N  int    `json:"n"`
}

// userEventsFrame carries wallet-scoped private events, of which "fills"
// is the one this adapter cares about.
type userEventsFrame struct {
	Channel string `json:"channel"`
	Data    struct {
		Fills []fillRecord `json:"fills"`
	} `json:"data"`
}

type fillRecord struct {
	Coin          string `json:"coin"`
	Px            string `json:"px"`
	Sz            string `json:"sz"`
	Side          string `json:"side"` // "B" or "A"
	Time          int64  `json:"time"` // milliseconds
	Oid           int64  `json:"oid"`
	Tid           int64  `json:"tid"`
	Fee           string `json:"fee"`
	// FeeToken is absent on older accounts; when present it is surfaced
	// as the fill's commission asset (supplemented feature, spec §9).
	FeeToken string `json:"feeToken,omitempty"`
}
