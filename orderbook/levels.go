package orderbook

import "github.com/shopspring/decimal"

// Level is a single price/quantity pair on one side of a book. Quantity
// is always strictly positive in a stored book; a Level carrying a zero
// Quantity is only ever a transient delete instruction inside an Update.
type Level struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// Levels is a slice of price levels, sorted according to the side it
// represents (bids descending, asks ascending) once returned from
// Snapshot.
type Levels []Level

// TotalQuantity sums the base-asset quantity across all levels.
func (l Levels) TotalQuantity() decimal.Decimal {
	sum := decimal.Zero
	for _, lvl := range l {
		sum = sum.Add(lvl.Quantity)
	}
	return sum
}

// TotalValue sums price*quantity (quote-currency notional) across all
// levels.
func (l Levels) TotalValue() decimal.Decimal {
	sum := decimal.Zero
	for _, lvl := range l {
		sum = sum.Add(lvl.Price.Mul(lvl.Quantity))
	}
	return sum
}
