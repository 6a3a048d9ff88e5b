package adapter

import (
	"github.com/shiftfx/mdcore/orderbook"
)

// BaseDepthAdapter is embedded by every venue's depth adapter. It wires
// together the supervised reconnect loop, the per-symbol reconstruction
// buffer and the consumer callback registry, implementing all of
// DepthSource except the venue-specific Connector passed to it.
type BaseDepthAdapter struct {
	Venue string

	Buffer     *DepthBuffer
	callbacks  *depthCallbacks
	supervisor *Supervisor
	stats      *Stats
}

// NewBaseDepthAdapter constructs the shared plumbing. connector must be
// built by the caller (typically closing over the returned Buffer so it
// can call LoadSnapshot/ApplyDelta as frames arrive).
func NewBaseDepthAdapter(venue string, connector Connector) *BaseDepthAdapter {
	b := &BaseDepthAdapter{Venue: venue}
	b.callbacks = newDepthCallbacks(venue)
	b.Buffer = NewDepthBuffer(venue, b.callbacks.dispatch)
	b.stats = NewStats(venue, "depth")
	b.supervisor = NewSupervisor(venue, "depth", connector, b.stats)
	return b
}

// Subscribe registers a callback for symbol's published book updates.
func (b *BaseDepthAdapter) Subscribe(symbol string, cb DepthCallback) error {
	b.callbacks.add(symbol, cb)
	return nil
}

// Start begins the supervised connect/reconnect loop.
func (b *BaseDepthAdapter) Start() error { return b.supervisor.Start() }

// Stop halts the adapter. Resources are released by the Connector's
// Connect implementation observing ctx.Done(); Stop also flushes every
// tracked symbol's replica since a stopped adapter's cache is no longer
// authoritative.
func (b *BaseDepthAdapter) Stop() error {
	err := b.supervisor.Stop()
	b.Buffer.FlushAll()
	return err
}

// GetLatestOrderbook returns the most recently published snapshot for
// symbol.
func (b *BaseDepthAdapter) GetLatestOrderbook(symbol string) (orderbook.Snapshot, error) {
	return b.Buffer.GetOrderbook(symbol)
}

// GetStats returns the adapter's current statistics.
func (b *BaseDepthAdapter) GetStats() Snapshot { return b.stats.Get() }

// Stats exposes the underlying Stats tracker so a Connector can record
// connects, reconnects and staleness as it runs.
func (b *BaseDepthAdapter) Stats() *Stats { return b.stats }

// Supervisor exposes the underlying Supervisor so the registry can read
// adapter state (e.g. for health checks).
func (b *BaseDepthAdapter) Supervisor() *Supervisor { return b.supervisor }
