// Package wireutil holds small parsing helpers shared across venue wire
// formats: string-encoded decimals and [price, quantity] pair arrays,
// the common denominator of every venue's depth payload regardless of
// its outer JSON shape.
package wireutil

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shiftfx/mdcore/orderbook"
)

// ParseDecimal parses a venue's string-encoded number, treating an empty
// string as zero (some venues omit a field rather than send "0").
func ParseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// LevelFromStrings builds an orderbook.Level from string price/quantity,
// as used by venues that wire levels as ["price", "qty"] pairs (Binance,
// Aster, Bybit, OKX, via LevelsFromPairs) or as structs with string
// fields (Hyperliquid, Lighter).
func LevelFromStrings(price, qty string) (orderbook.Level, error) {
	p, err := ParseDecimal(price)
	if err != nil {
		return orderbook.Level{}, fmt.Errorf("wireutil: parse price %q: %w", price, err)
	}
	q, err := ParseDecimal(qty)
	if err != nil {
		return orderbook.Level{}, fmt.Errorf("wireutil: parse quantity %q: %w", qty, err)
	}
	return orderbook.Level{Price: p, Quantity: q}, nil
}

// LevelsFromPairs converts a [][]string wire array (Binance/Aster-style
// [price, qty] tuples) into orderbook.Levels, skipping malformed rows
// rather than failing the whole book.
func LevelsFromPairs(rows [][]string) orderbook.Levels {
	out := make(orderbook.Levels, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		lvl, err := LevelFromStrings(row[0], row[1])
		if err != nil {
			continue
		}
		out = append(out, lvl)
	}
	return out
}
