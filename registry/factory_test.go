package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftfx/mdcore/orderbook"
)

func TestFactory_CreateOrderbookStream_UnknownVenueErrors(t *testing.T) {
	f := NewFactory()
	_, err := f.CreateOrderbookStream("not-a-venue", "BTCUSDT")
	assert.Error(t, err)
}

func TestFactory_CreateOrderbookStream_KnownVenueSucceeds(t *testing.T) {
	f := NewFactory()
	stream, err := f.CreateOrderbookStream(Binance, "BTCUSDT")
	require.NoError(t, err)
	assert.NotNil(t, stream)
}

func TestFactory_CreateSymbolStreams_UnknownVenueAErrors(t *testing.T) {
	f := NewFactory()
	_, _, err := f.CreateSymbolStreams("nope", Bybit, "BTCUSDT", nil, nil)
	assert.Error(t, err)
}

func TestFactory_CreateSymbolStreams_UnknownVenueBErrors(t *testing.T) {
	f := NewFactory()
	_, _, err := f.CreateSymbolStreams(Binance, "nope", "BTCUSDT", nil, nil)
	assert.Error(t, err)
}

func TestFactory_CreateSymbolStreams_BothKnownSucceeds(t *testing.T) {
	f := NewFactory()
	a, b, err := f.CreateSymbolStreams(Binance, Bybit, "BTCUSDT",
		func(orderbook.Snapshot) {}, func(orderbook.Snapshot) {})
	require.NoError(t, err)
	assert.NotNil(t, a)
	assert.NotNil(t, b)
}
