package lighter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepthAdapter_HandleFrame_SubscribedThenUpdate(t *testing.T) {
	d := NewDepthAdapter("BTCUSDT")
	channel := "order_book/3"

	snapshot := []byte(`{"type":"subscribed/order_book","channel":"order_book/3",
		"order_book":{"bids":[{"price":"100","size":"1"}],"asks":[{"price":"101","size":"2"}],"offset":1}}`)
	require.NoError(t, d.handleFrame(snapshot, channel))

	snap, err := d.GetLatestOrderbook("BTCUSDT")
	require.NoError(t, err)
	require.True(t, snap.Initialized)
	assert.Equal(t, "100", snap.Bids[0].Price.String())

	update := []byte(`{"type":"update/order_book","channel":"order_book/3",
		"order_book":{"bids":[{"price":"100","size":"0"}],"asks":[],"offset":2}}`)
	require.NoError(t, d.handleFrame(update, channel))

	snap, err = d.GetLatestOrderbook("BTCUSDT")
	require.NoError(t, err)
	assert.Empty(t, snap.Bids)
}

func TestDepthAdapter_HandleFrame_IgnoresOtherChannels(t *testing.T) {
	d := NewDepthAdapter("BTCUSDT")
	frame := []byte(`{"type":"update/order_book","channel":"order_book/99",
		"order_book":{"bids":[],"asks":[],"offset":1}}`)
	require.NoError(t, d.handleFrame(frame, "order_book/3"))

	_, err := d.GetLatestOrderbook("BTCUSDT")
	assert.Error(t, err)
}

func TestParseTrade_ResolvesSymbolFromMarketIDMap(t *testing.T) {
	rec := tradeRecord{
		MarketID: 3, OrderID: "o1", Side: "sell",
		Price: "100", Size: "1", TradeID: "t1",
		TimestampUS: 1700000000000000, Fee: "0.1", FeeAsset: "USDC",
	}
	symbols := map[int]string{3: "BTCUSDT"}
	ev, err := parseTrade(rec, symbols[rec.MarketID])
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "BTCUSDT", ev.Symbol)
	assert.Equal(t, "USDC", ev.CommissionAsset)
}

func TestParseTrade_EmptySymbolFailsValidity(t *testing.T) {
	rec := tradeRecord{
		MarketID: 77, OrderID: "o1", Side: "buy",
		Price: "100", Size: "1", TradeID: "t1",
		TimestampUS: 1700000000000000, Fee: "0",
	}
	ev, err := parseTrade(rec, "")
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestNormalizeSide(t *testing.T) {
	assert.EqualValues(t, "SELL", normalizeSide("sell"))
	assert.EqualValues(t, "BUY", normalizeSide("buy"))
}
