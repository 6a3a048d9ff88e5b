// Package fill implements the normalized private-channel data types from
// spec §3: FillEvent, OrderStatus and HedgeEvent, shared by every venue's
// fill adapter so downstream consumers are venue-agnostic.
package fill

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the normalized order side.
type Side string

// Normalized sides.
const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Event is a normalized trade execution against one of the account's
// orders, produced by a FillSource adapter (spec §4.4).
type Event struct {
	Venue            string
	Symbol           string
	OrderID          string
	Side             Side
	Quantity         decimal.Decimal
	Price            decimal.Decimal
	TradeID          string
	Timestamp        time.Time
	Commission       decimal.Decimal
	CommissionAsset  string
}

// SignedQuantity returns +Quantity for BUY, -Quantity for SELL.
func (e Event) SignedQuantity() decimal.Decimal {
	if e.Side == Sell {
		return e.Quantity.Neg()
	}
	return e.Quantity
}

// NotionalValue returns Quantity*Price, the quote-currency value of the
// fill.
func (e Event) NotionalValue() decimal.Decimal {
	return e.Quantity.Mul(e.Price)
}

// Valid rejects fills missing any of the required fields named in spec
// §4.4 parser rules: symbol, order id, positive price, positive
// quantity, positive timestamp.
func (e Event) Valid() bool {
	if e.Symbol == "" || e.OrderID == "" {
		return false
	}
	if e.Price.Sign() <= 0 || e.Quantity.Sign() <= 0 {
		return false
	}
	return !e.Timestamp.IsZero() && e.Timestamp.Unix() > 0
}

// NormalizeMillis converts a millisecond epoch timestamp to a time.Time,
// per spec §4.4 "milliseconds -> /1000".
func NormalizeMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// NormalizeMicros converts a microsecond epoch timestamp to a time.Time,
// per spec §4.4 "microseconds -> /1_000_000".
func NormalizeMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}
