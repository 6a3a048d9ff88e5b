// Package registry implements the stream registry and factory described
// in spec §4.5: a venue-keyed constructor for depth streams, paired
// cross-venue stream creation for spread/arbitrage consumers, and a
// StreamManager that tracks every live pair and reports aggregate health.
package registry

import (
	"fmt"

	"github.com/shiftfx/mdcore/adapter"
	"github.com/shiftfx/mdcore/venues/aster"
	"github.com/shiftfx/mdcore/venues/binance"
	"github.com/shiftfx/mdcore/venues/bybit"
	"github.com/shiftfx/mdcore/venues/hyperliquid"
	"github.com/shiftfx/mdcore/venues/lighter"
	"github.com/shiftfx/mdcore/venues/okx"
)

// Venue codes recognized by the Factory, matching each venue package's
// own venueName constant.
const (
	Binance     = "binance"
	Bybit       = "bybit"
	OKX         = "okx"
	Hyperliquid = "hyperliquid"
	Lighter     = "lighter"
	Aster       = "aster"
)

// depthConstructors maps a venue code to its depth adapter constructor.
// Every entry here is one of the per-venue table rows in spec §4.3.
var depthConstructors = map[string]func(symbol string) adapter.DepthSource{
	Binance:     func(symbol string) adapter.DepthSource { return binance.NewDepthAdapter(symbol) },
	Bybit:       func(symbol string) adapter.DepthSource { return bybit.NewDepthAdapter(symbol) },
	OKX:         func(symbol string) adapter.DepthSource { return okx.NewDepthAdapter(symbol) },
	Hyperliquid: func(symbol string) adapter.DepthSource { return hyperliquid.NewDepthAdapter(symbol) },
	Lighter:     func(symbol string) adapter.DepthSource { return lighter.NewDepthAdapter(symbol) },
	Aster:       func(symbol string) adapter.DepthSource { return aster.NewDepthAdapter(symbol) },
}

// Factory constructs venue depth streams by code, the entry point named
// in spec §4.5.
type Factory struct{}

// NewFactory constructs a Factory. It carries no state of its own; all
// bookkeeping of live streams lives in StreamManager.
func NewFactory() *Factory { return &Factory{} }

// CreateOrderbookStream builds a single venue/symbol depth stream,
// unstarted (spec §4.5 create_orderbook_stream).
func (f *Factory) CreateOrderbookStream(venue, symbol string) (adapter.DepthSource, error) {
	ctor, ok := depthConstructors[venue]
	if !ok {
		return nil, fmt.Errorf("registry: unknown venue %q", venue)
	}
	return ctor(symbol), nil
}

// CreateSymbolStreams builds a pair of depth streams for the same symbol
// across two venues, each wired to its own callback, for cross-venue
// consumers such as spread or arbitrage monitors (spec §4.5
// create_symbol_streams). Each stream is subscribed to its callback but
// not started; the caller starts both via StartStreams.
func (f *Factory) CreateSymbolStreams(venueA, venueB, symbol string, cbA, cbB adapter.DepthCallback) (adapter.DepthSource, adapter.DepthSource, error) {
	streamA, err := f.CreateOrderbookStream(venueA, symbol)
	if err != nil {
		return nil, nil, fmt.Errorf("registry: venue_a: %w", err)
	}
	streamB, err := f.CreateOrderbookStream(venueB, symbol)
	if err != nil {
		return nil, nil, fmt.Errorf("registry: venue_b: %w", err)
	}
	if err := streamA.Subscribe(symbol, cbA); err != nil {
		return nil, nil, fmt.Errorf("registry: subscribe venue_a: %w", err)
	}
	if err := streamB.Subscribe(symbol, cbB); err != nil {
		return nil, nil, fmt.Errorf("registry: subscribe venue_b: %w", err)
	}
	return streamA, streamB, nil
}

// StartStreams starts every given stream, returning the first error
// encountered. Streams already started are left running (Start is
// idempotent per spec §6).
func StartStreams(streams ...adapter.DepthSource) error {
	for _, s := range streams {
		if err := s.Start(); err != nil {
			return err
		}
	}
	return nil
}

// StopStreams stops every given stream, continuing past individual
// errors so one stuck stream doesn't block the rest from stopping, and
// returns the first error encountered (if any).
func StopStreams(streams ...adapter.DepthSource) error {
	var first error
	for _, s := range streams {
		if err := s.Stop(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
