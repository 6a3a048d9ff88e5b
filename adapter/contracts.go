package adapter

import (
	"github.com/shiftfx/mdcore/fill"
	"github.com/shiftfx/mdcore/orderbook"
)

// DepthCallback receives a published order book snapshot. Multiple
// callbacks may be registered per symbol and are invoked in registration
// order (spec §6). A callback panic/error is trapped and logged by the
// adapter; it never propagates to the message loop (spec §4.2
// Publication policy).
type DepthCallback func(orderbook.Snapshot)

// FillCallback receives a normalized fill event. Invoked synchronously
// per emitted fill (spec §6 Fill consumer API).
type FillCallback func(fill.Event)

// DepthSource is the consumer-facing contract every venue's depth
// adapter satisfies (spec §6 Consumer API).
type DepthSource interface {
	// Subscribe registers a callback for a symbol's published book
	// updates.
	Subscribe(symbol string, cb DepthCallback) error
	// Start begins the supervised connect/reconnect loop. Idempotent.
	Start() error
	// Stop halts the adapter and releases its resources. Idempotent.
	Stop() error
	// GetLatestOrderbook returns the most recently published snapshot
	// for symbol, or ErrDepthNotFound if none has been published yet.
	GetLatestOrderbook(symbol string) (orderbook.Snapshot, error)
	// GetStats returns the adapter's current statistics.
	GetStats() Snapshot
}

// FillSource is the consumer-facing contract every venue's private fill
// adapter satisfies (spec §6 Fill consumer API).
type FillSource interface {
	// Start begins the supervised connect/reconnect loop. Idempotent.
	Start() error
	// Stop halts the adapter and releases its resources. Idempotent.
	Stop() error
	// GetStats returns the adapter's current statistics.
	GetStats() Snapshot
}
