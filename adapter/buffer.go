package adapter

import (
	"fmt"
	"sync"
	"time"

	"github.com/shiftfx/mdcore/orderbook"
)

// Mode selects which §4.2 initialization protocol a symbol's holder
// follows.
type Mode int

const (
	// ModeA is "REST snapshot + buffered deltas", used by venues whose
	// delta stream carries explicit U/u sequence numbers (Binance,
	// Aster).
	ModeA Mode = iota
	// ModeB is "websocket snapshot + deltas", used by venues that tag
	// frames snapshot/delta in-stream (Bybit, OKX, Hyperliquid,
	// Lighter).
	ModeB
)

// ErrDepthNotFound is returned when an operation targets a symbol that
// has no holder registered, or for which no snapshot has been published
// yet.
var ErrDepthNotFound = fmt.Errorf("depth buffer: symbol not registered")

type holder struct {
	book      *orderbook.Book
	mode      Mode
	snapshotted bool
	// firstDeltaApplied gates the U<=lastUpdateId+1<=u check (spec §4.2
	// step 4): only the first delta after a snapshot needs it, every
	// later delta uses the plain U==previous_u+1 chain check (step 5).
	firstDeltaApplied bool
	// latest is the most recently published snapshot. Invalidate leaves
	// it in place, so consumers keep the last good view until a new
	// snapshot is published.
	latest *orderbook.Snapshot
}

// DepthBuffer manages the per-symbol order book holders for one venue
// adapter, implementing the generic reconstruction contract of spec
// §4.2 for both initialization modes. It is exclusively owned by one
// adapter instance (spec §3 Ownership).
type DepthBuffer struct {
	venue   string
	publish func(orderbook.Snapshot)

	mu   sync.RWMutex
	book map[string]*holder
}

// NewDepthBuffer constructs a buffer that invokes publish after every
// successfully applied snapshot or delta.
func NewDepthBuffer(venue string, publish func(orderbook.Snapshot)) *DepthBuffer {
	return &DepthBuffer{
		venue:   venue,
		publish: publish,
		book:    make(map[string]*holder),
	}
}

func (d *DepthBuffer) holderFor(symbol string, mode Mode) *holder {
	h, ok := d.book[symbol]
	if !ok {
		h = &holder{book: orderbook.New(d.venue, symbol), mode: mode}
		d.book[symbol] = h
	}
	return h
}

// LoadSnapshot applies a full snapshot (REST or websocket) for symbol,
// replacing any existing replica and resetting the sequence-gap tracking
// state. Publishes the resulting top-N view on success.
func (d *DepthBuffer) LoadSnapshot(symbol string, mode Mode, bids, asks orderbook.Levels, lastUpdateID int64, at time.Time) error {
	d.mu.Lock()
	h := d.holderFor(symbol, mode)
	h.mode = mode
	h.firstDeltaApplied = false
	err := h.book.LoadSnapshot(bids, asks, lastUpdateID, at)
	if err == nil {
		h.snapshotted = true
	}
	d.mu.Unlock()

	if err != nil {
		return err
	}
	d.publishSymbol(symbol)
	return nil
}

// ApplyDelta applies one incremental update for symbol. For ModeA
// holders it enforces the explicit first-delta and chained sequence
// checks from spec §4.2 steps 4-5; for ModeB holders it relies solely on
// the book's own last_update_id monotonicity and crossed-book checks
// (cross-side zero-means-delete merging, spec §4.3 "Cross-side update
// merging").
//
// Returns orderbook.ErrNotInitialized if no snapshot has been loaded yet
// (discard, no callback -- spec §8 scenario 2), orderbook.ErrSequenceGap
// if a ModeA chain check fails (caller must re-snapshot), or
// orderbook.ErrCrossedBook if the delta would cross the book (the
// replica has already been invalidated).
func (d *DepthBuffer) ApplyDelta(symbol string, u *orderbook.Update) error {
	d.mu.Lock()
	h, ok := d.book[symbol]
	if !ok {
		d.mu.Unlock()
		return orderbook.ErrNotInitialized
	}
	if !h.snapshotted {
		d.mu.Unlock()
		return orderbook.ErrNotInitialized
	}

	if h.mode == ModeA {
		if !h.firstDeltaApplied {
			snapID := h.book.LastUpdateID()
			if u.LastUpdateID <= snapID {
				// Wholly at or before the snapshot: stale, discard.
				d.mu.Unlock()
				return nil
			}
			if !(u.FirstUpdateID <= snapID+1 && snapID+1 <= u.LastUpdateID) {
				d.mu.Unlock()
				return orderbook.ErrSequenceGap
			}
			h.firstDeltaApplied = true
		} else {
			prev := h.book.LastUpdateID()
			if u.FirstUpdateID != prev+1 {
				d.mu.Unlock()
				return orderbook.ErrSequenceGap
			}
		}
	}

	err := h.book.ApplyDelta(u)
	d.mu.Unlock()

	switch err {
	case nil:
		d.publishSymbol(symbol)
		return nil
	case orderbook.ErrOutOfOrder:
		// Stale/duplicate update: legitimate no-op, not an error the
		// caller should escalate or re-snapshot over.
		return nil
	default:
		return err
	}
}

func (d *DepthBuffer) publishSymbol(symbol string) {
	d.mu.Lock()
	h, ok := d.book[symbol]
	if !ok {
		d.mu.Unlock()
		return
	}
	snap := h.book.Snapshot(TopNDefault)
	if !snap.Initialized {
		d.mu.Unlock()
		return
	}
	h.latest = &snap
	d.mu.Unlock()
	if d.publish != nil {
		d.publish(snap)
	}
}

// TopNDefault is the default top-N truncation depth for published
// snapshots (spec §4.2 Publication policy: "N typically 50").
const TopNDefault = 50

// Invalidate discards the replica for symbol, as happens on reconnect
// (spec §4.2 Reconnect: "discard the replica and the initialized flag").
func (d *DepthBuffer) Invalidate(symbol string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if h, ok := d.book[symbol]; ok {
		h.book.Invalidate()
		h.snapshotted = false
		h.firstDeltaApplied = false
	}
}

// FlushAll discards every tracked symbol's replica, used on adapter stop
// and full reconnect (spec §4.2 Reconnect).
func (d *DepthBuffer) FlushAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.book = make(map[string]*holder)
}

// GetOrderbook returns the cached latest published snapshot for symbol.
// The cache outlives Invalidate, so after a disconnect it still returns
// the pre-disconnect view until a new snapshot is published.
func (d *DepthBuffer) GetOrderbook(symbol string) (orderbook.Snapshot, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.book[symbol]
	if !ok || h.latest == nil {
		return orderbook.Snapshot{}, ErrDepthNotFound
	}
	return *h.latest, nil
}
