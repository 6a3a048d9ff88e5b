package adapter

import "github.com/shiftfx/mdcore/fill"

// BaseFillAdapter is embedded by every venue's private fill adapter. It
// wires the supervised reconnect loop and the single registered
// FillCallback, implementing all of FillSource except the venue-specific
// Connector.
type BaseFillAdapter struct {
	Venue string

	callback   *fillCallback
	supervisor *Supervisor
	stats      *Stats
}

// NewBaseFillAdapter constructs the shared plumbing around onFill, the
// constructor-supplied callback invoked synchronously per emitted fill
// (spec §6 Fill consumer API).
func NewBaseFillAdapter(venue string, onFill FillCallback, connector Connector) *BaseFillAdapter {
	b := &BaseFillAdapter{Venue: venue}
	b.callback = newFillCallback(venue, onFill)
	b.stats = NewStats(venue, "fills")
	b.supervisor = NewSupervisor(venue, "fills", connector, b.stats)
	return b
}

// Start begins the supervised connect/reconnect loop.
func (b *BaseFillAdapter) Start() error { return b.supervisor.Start() }

// Stop halts the adapter and releases its resources.
func (b *BaseFillAdapter) Stop() error { return b.supervisor.Stop() }

// GetStats returns the adapter's current statistics.
func (b *BaseFillAdapter) GetStats() Snapshot { return b.stats.Get() }

// Stats exposes the underlying Stats tracker for the Connector to record
// against as it runs.
func (b *BaseFillAdapter) Stats() *Stats { return b.stats }

// Supervisor exposes the underlying Supervisor so the registry can read
// adapter state.
func (b *BaseFillAdapter) Supervisor() *Supervisor { return b.supervisor }

// Forward dispatches a parsed fill event to the registered callback and
// records it in stats. Venue parsers call this once per emitted
// FillEvent (spec §4.4 Message dispatch).
func (b *BaseFillAdapter) Forward(ev fill.Event) {
	b.stats.RecordFill(ev.Timestamp)
	b.callback.dispatch(ev)
}
