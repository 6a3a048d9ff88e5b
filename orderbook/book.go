// Package orderbook implements the venue-agnostic order book replica
// described in spec §3 and its reconstruction protocol in §4.2: a pair of
// price->quantity maps per side, a monotonic last_update_id, invariant
// enforcement on every applied delta, and derived top-N/staleness/spread
// views published to consumers as frozen snapshots.
package orderbook

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Book is a single venue/symbol order book replica. All mutation happens
// through LoadSnapshot and ApplyDelta; consumers only ever see the
// immutable Snapshot returned by Snapshot(), never a pointer into the
// live maps.
//
// A Book is exclusively owned by the adapter that constructs it: no two
// adapters ever share one (spec §3 Ownership).
type Book struct {
	mu sync.RWMutex

	venue  string
	symbol string

	bids map[string]Level
	asks map[string]Level

	lastUpdateID int64
	timestamp    time.Time
	initialized  bool
}

// New constructs an empty, uninitialized Book for venue/symbol.
func New(venue, symbol string) *Book {
	return &Book{
		venue:  venue,
		symbol: symbol,
		bids:   make(map[string]Level),
		asks:   make(map[string]Level),
	}
}

// Venue returns the owning venue code.
func (b *Book) Venue() string { return b.venue }

// Symbol returns the canonical instrument symbol.
func (b *Book) Symbol() string { return b.symbol }

// IsInitialized reports whether a snapshot has ever been loaded since
// construction or the last Invalidate.
func (b *Book) IsInitialized() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.initialized
}

// LastUpdateID returns the last applied sequence number.
func (b *Book) LastUpdateID() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastUpdateID
}

// LoadSnapshot replaces the book wholesale, as both initialization modes
// do on receipt of a REST or websocket snapshot frame. A zero-quantity
// level in the snapshot is dropped rather than stored, per §3 "a quantity
// of zero is never stored".
func (b *Book) LoadSnapshot(bids, asks Levels, lastUpdateID int64, ts time.Time) error {
	newBids := make(map[string]Level, len(bids))
	for _, lvl := range bids {
		if lvl.Quantity.Sign() <= 0 {
			continue
		}
		newBids[lvl.Price.String()] = lvl
	}
	newAsks := make(map[string]Level, len(asks))
	for _, lvl := range asks {
		if lvl.Quantity.Sign() <= 0 {
			continue
		}
		newAsks[lvl.Price.String()] = lvl
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.bids = newBids
	b.asks = newAsks
	b.lastUpdateID = lastUpdateID
	b.timestamp = ts
	b.initialized = true
	return b.checkInvariantsLocked()
}

// ApplyDelta merges an incremental update into the book. Zero quantity
// removes the level; non-zero inserts or overwrites. Returns
// ErrNotInitialized if no snapshot has been loaded, ErrOutOfOrder if the
// update does not advance last_update_id (a legitimate no-op, not a
// failure the caller should escalate), or ErrCrossedBook if applying the
// delta would violate the no-crossed-book invariant -- in the latter case
// the book has already been invalidated and the caller must re-snapshot.
func (b *Book) ApplyDelta(u *Update) error {
	if err := u.validate(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return ErrNotInitialized
	}
	if u.LastUpdateID <= b.lastUpdateID {
		return ErrOutOfOrder
	}

	for _, lvl := range u.Bids {
		applyLevel(b.bids, lvl)
	}
	for _, lvl := range u.Asks {
		applyLevel(b.asks, lvl)
	}
	b.lastUpdateID = u.LastUpdateID
	b.timestamp = u.Timestamp

	return b.checkInvariantsLocked()
}

func applyLevel(side map[string]Level, lvl Level) {
	if lvl.Quantity.Sign() <= 0 {
		delete(side, lvl.Price.String())
		return
	}
	side[lvl.Price.String()] = lvl
}

// checkInvariantsLocked enforces the no-crossed-book invariant (positive
// quantities are kept by dropping qty <= 0 levels on load and apply).
// Caller must hold b.mu. On violation the book is
// invalidated in place (spec §3: "the book is reseeded from a fresh
// snapshot").
func (b *Book) checkInvariantsLocked() error {
	bestBid, hasBid := bestOf(b.bids, true)
	bestAsk, hasAsk := bestOf(b.asks, false)
	if hasBid && hasAsk && bestBid.Price.Cmp(bestAsk.Price) >= 0 {
		b.invalidateLocked()
		return ErrCrossedBook
	}
	return nil
}

// Invalidate discards the replica and clears the initialized flag, as
// happens on reconnect or any invariant violation (spec §3 Lifecycle).
func (b *Book) Invalidate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.invalidateLocked()
}

func (b *Book) invalidateLocked() {
	b.bids = make(map[string]Level)
	b.asks = make(map[string]Level)
	b.initialized = false
}

// bestOf finds the best (highest for bids, lowest for asks) level in a
// side map. Not safe to call without holding the book's lock.
func bestOf(side map[string]Level, wantHighest bool) (Level, bool) {
	var best Level
	found := false
	for _, lvl := range side {
		if !found {
			best = lvl
			found = true
			continue
		}
		if wantHighest && lvl.Price.Cmp(best.Price) > 0 {
			best = lvl
		} else if !wantHighest && lvl.Price.Cmp(best.Price) < 0 {
			best = lvl
		}
	}
	return best, found
}

func sortedLevels(side map[string]Level, descending bool, limit int) Levels {
	out := make(Levels, 0, len(side))
	for _, lvl := range side {
		out = append(out, lvl)
	}
	sort.Slice(out, func(i, j int) bool {
		if descending {
			return out[i].Price.Cmp(out[j].Price) > 0
		}
		return out[i].Price.Cmp(out[j].Price) < 0
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Snapshot is the immutable, copy-on-emit view of a Book published to
// consumers (spec §3 Ownership: "consumers never mutate").
type Snapshot struct {
	Venue        string
	Symbol       string
	Bids         Levels
	Asks         Levels
	LastUpdateID int64
	Timestamp    time.Time
	Initialized  bool
}

// Snapshot produces a top-N truncated, sorted, immutable view: bids
// descending, asks ascending (spec §4.2 Publication policy). N<=0 means
// unlimited.
func (b *Book) Snapshot(n int) Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Snapshot{
		Venue:        b.venue,
		Symbol:       b.symbol,
		Bids:         sortedLevels(b.bids, true, n),
		Asks:         sortedLevels(b.asks, false, n),
		LastUpdateID: b.lastUpdateID,
		Timestamp:    b.timestamp,
		Initialized:  b.initialized,
	}
}

// BestBid returns the highest bid level, if any.
func (s Snapshot) BestBid() (Level, bool) {
	if len(s.Bids) == 0 {
		return Level{}, false
	}
	return s.Bids[0], true
}

// BestAsk returns the lowest ask level, if any.
func (s Snapshot) BestAsk() (Level, bool) {
	if len(s.Asks) == 0 {
		return Level{}, false
	}
	return s.Asks[0], true
}

// Mid returns the mid price (average of best bid and best ask). Returns
// false if either side is empty.
func (s Snapshot) Mid() (decimal.Decimal, bool) {
	bid, ok := s.BestBid()
	if !ok {
		return decimal.Zero, false
	}
	ask, ok := s.BestAsk()
	if !ok {
		return decimal.Zero, false
	}
	return bid.Price.Add(ask.Price).Div(decimal.NewFromInt(2)), true
}

// Spread returns the absolute best-ask-minus-best-bid spread.
func (s Snapshot) Spread() (decimal.Decimal, bool) {
	bid, ok := s.BestBid()
	if !ok {
		return decimal.Zero, false
	}
	ask, ok := s.BestAsk()
	if !ok {
		return decimal.Zero, false
	}
	return ask.Price.Sub(bid.Price), true
}

// RelativeSpread returns Spread/Mid.
func (s Snapshot) RelativeSpread() (decimal.Decimal, bool) {
	spread, ok := s.Spread()
	if !ok {
		return decimal.Zero, false
	}
	mid, ok := s.Mid()
	if !ok || mid.Sign() == 0 {
		return decimal.Zero, false
	}
	return spread.Div(mid), true
}

// CumulativeDepth sums base quantity and quote-currency value across up
// to n levels of one side. side=true for bids, false for asks.
func (s Snapshot) CumulativeDepth(side bool, n int) (baseQty, quoteValue decimal.Decimal) {
	levels := s.Asks
	if side {
		levels = s.Bids
	}
	if n > 0 && n < len(levels) {
		levels = levels[:n]
	}
	return levels.TotalQuantity(), levels.TotalValue()
}

// Stale reports whether now-Timestamp exceeds threshold (spec §3 derived
// "staleness flag").
func (s Snapshot) Stale(now time.Time, threshold time.Duration) bool {
	return now.Sub(s.Timestamp) > threshold
}
