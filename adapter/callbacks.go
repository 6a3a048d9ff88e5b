package adapter

import (
	"sync"

	"github.com/shiftfx/mdcore/fill"
	"github.com/shiftfx/mdcore/internal/corelog"
	"github.com/shiftfx/mdcore/orderbook"
)

// depthCallbacks tracks registered DepthCallback functions per symbol,
// invoked in registration order. A panicking callback is recovered and
// logged, never allowed to crash the receive loop (spec §4.2 Publication
// policy, §7 "Callback exception").
type depthCallbacks struct {
	venue string

	mu   sync.RWMutex
	byID map[string][]DepthCallback
}

func newDepthCallbacks(venue string) *depthCallbacks {
	return &depthCallbacks{venue: venue, byID: make(map[string][]DepthCallback)}
}

func (c *depthCallbacks) add(symbol string, cb DepthCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[symbol] = append(c.byID[symbol], cb)
}

func (c *depthCallbacks) dispatch(snap orderbook.Snapshot) {
	c.mu.RLock()
	cbs := append([]DepthCallback(nil), c.byID[snap.Symbol]...)
	c.mu.RUnlock()
	for _, cb := range cbs {
		c.invokeSafely(cb, snap)
	}
}

func (c *depthCallbacks) invokeSafely(cb DepthCallback, snap orderbook.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			corelog.Venue(corelog.Orderbook, c.venue).Error().
				Interface("panic", r).
				Str("symbol", snap.Symbol).
				Msg("orderbook callback panicked, ignoring")
		}
	}()
	cb(snap)
}

// fillCallback wraps the single registered FillCallback with the same
// panic-trapping guarantee.
type fillCallback struct {
	venue string
	cb    FillCallback
}

func newFillCallback(venue string, cb FillCallback) *fillCallback {
	return &fillCallback{venue: venue, cb: cb}
}

func (f *fillCallback) dispatch(ev fill.Event) {
	if f.cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			corelog.Venue(corelog.Fills, f.venue).Error().
				Interface("panic", r).
				Str("symbol", ev.Symbol).
				Msg("fill callback panicked, ignoring")
		}
	}()
	f.cb(ev)
}
