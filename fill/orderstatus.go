package fill

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is an order's lifecycle state.
type Status string

// Normalized statuses.
const (
	StatusNew             Status = "NEW"
	StatusPartiallyFilled Status = "PARTIALLY_FILLED"
	StatusFilled          Status = "FILLED"
	StatusCanceled        Status = "CANCELED"
	StatusFailed          Status = "FAILED"
)

// OrderStatus is a snapshot of one active order's fill progress (spec
// §3). It is mutated exclusively through AddFill, which recomputes the
// volume-weighted average price, advances cumulative filled quantity and
// transitions Status, clamping overfills to the original quantity.
type OrderStatus struct {
	OrderID          string
	OriginalQuantity decimal.Decimal
	FilledQuantity   decimal.Decimal
	AVGPrice         decimal.Decimal
	Status           Status
	CreateTime       time.Time
	UpdateTime       time.Time
	Commission       decimal.Decimal
}

// NewOrderStatus constructs a fresh NEW order with zero fills.
func NewOrderStatus(orderID string, originalQty decimal.Decimal, createTime time.Time) *OrderStatus {
	return &OrderStatus{
		OrderID:          orderID,
		OriginalQuantity: originalQty,
		FilledQuantity:   decimal.Zero,
		AVGPrice:         decimal.Zero,
		Status:           StatusNew,
		CreateTime:       createTime,
		UpdateTime:       createTime,
		Commission:       decimal.Zero,
	}
}

// AddFill folds one more fill (qty, price) into the order's cumulative
// state. VWAP is recomputed as the quantity-weighted average of the
// existing fill and the new one. Cumulative filled quantity never
// exceeds OriginalQuantity: an overfill from the venue is clamped to
// OriginalQuantity and the status forced to FILLED (spec §3 Clamping
// rule).
func (o *OrderStatus) AddFill(qty, price decimal.Decimal, at time.Time) {
	if qty.Sign() <= 0 {
		return
	}

	prevQty := o.FilledQuantity
	newQty := prevQty.Add(qty)

	if newQty.GreaterThan(o.OriginalQuantity) {
		// Clamp: only the portion up to OriginalQuantity counts toward
		// VWAP weighting, matching the quantity actually attributed to
		// the order.
		allowed := o.OriginalQuantity.Sub(prevQty)
		if allowed.Sign() < 0 {
			allowed = decimal.Zero
		}
		qty = allowed
		newQty = o.OriginalQuantity
	}

	if qty.Sign() > 0 {
		weightedPrev := o.AVGPrice.Mul(prevQty)
		weightedNew := price.Mul(qty)
		if newQty.Sign() > 0 {
			o.AVGPrice = weightedPrev.Add(weightedNew).Div(newQty)
		}
	}

	o.FilledQuantity = newQty
	o.UpdateTime = at

	switch {
	case newQty.GreaterThanOrEqual(o.OriginalQuantity):
		o.Status = StatusFilled
	case newQty.Sign() > 0:
		o.Status = StatusPartiallyFilled
	}
}

// AddCommission accumulates commission paid on this order. Stored as an
// absolute value per spec §4.4 ("Commissions are stored as absolute
// value").
func (o *OrderStatus) AddCommission(amount decimal.Decimal) {
	o.Commission = o.Commission.Add(amount.Abs())
}

// RemainingQuantity returns OriginalQuantity - FilledQuantity, never
// negative.
func (o *OrderStatus) RemainingQuantity() decimal.Decimal {
	r := o.OriginalQuantity.Sub(o.FilledQuantity)
	if r.Sign() < 0 {
		return decimal.Zero
	}
	return r
}

// Cancel transitions the order to CANCELED, stamping UpdateTime.
func (o *OrderStatus) Cancel(at time.Time) {
	o.Status = StatusCanceled
	o.UpdateTime = at
}

// Fail transitions the order to FAILED, stamping UpdateTime.
func (o *OrderStatus) Fail(at time.Time) {
	o.Status = StatusFailed
	o.UpdateTime = at
}
