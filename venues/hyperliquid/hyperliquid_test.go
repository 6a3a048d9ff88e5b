package hyperliquid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCoinFromCoin_RoundTrips(t *testing.T) {
	assert.Equal(t, "BTC", toCoin("BTCUSDT"))
	assert.Equal(t, "BTCUSDT", fromCoin("BTC"))
}

func TestDepthAdapter_HandleFrame_FullBookReplace(t *testing.T) {
	d := NewDepthAdapter("BTCUSDT")

	first := []byte(`{"channel":"l2Book","data":{"coin":"BTC","time":1700000000000,
		"levels":[[{"px":"100","sz":"1","n":1}],[{"px":"101","sz":"2","n":1}]]}}`)
	require.NoError(t, d.handleFrame(first))

	snap, err := d.GetLatestOrderbook("BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, "100", snap.Bids[0].Price.String())

	second := []byte(`{"channel":"l2Book","data":{"coin":"BTC","time":1700000000500,
		"levels":[[{"px":"99","sz":"3","n":1}],[{"px":"102","sz":"4","n":1}]]}}`)
	require.NoError(t, d.handleFrame(second))

	snap, err = d.GetLatestOrderbook("BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, "99", snap.Bids[0].Price.String())
}

func TestDepthAdapter_HandleFrame_IgnoresOtherCoins(t *testing.T) {
	d := NewDepthAdapter("BTCUSDT")
	frame := []byte(`{"channel":"l2Book","data":{"coin":"ETH","time":1,"levels":[[],[]]}}`)
	require.NoError(t, d.handleFrame(frame))

	_, err := d.GetLatestOrderbook("BTCUSDT")
	assert.Error(t, err)
}

func TestParseFill_SideMapping(t *testing.T) {
	buy, err := parseFill(fillRecord{Coin: "BTC", Px: "100", Sz: "1", Side: "B", Time: 1700000000000, Fee: "0"})
	require.NoError(t, err)
	require.NotNil(t, buy)
	assert.Equal(t, "BUY", string(buy.Side))

	sell, err := parseFill(fillRecord{Coin: "BTC", Px: "100", Sz: "1", Side: "A", Time: 1700000000000, Fee: "0"})
	require.NoError(t, err)
	require.NotNil(t, sell)
	assert.Equal(t, "SELL", string(sell.Side))
}

func TestParseFill_NormalizesSymbolFromCoin(t *testing.T) {
	ev, err := parseFill(fillRecord{Coin: "BTC", Px: "100", Sz: "1", Side: "B", Time: 1700000000000, Fee: "0"})
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "BTCUSDT", ev.Symbol)
}

func TestParseFill_CommissionOptionalWhenFeeTokenAbsent(t *testing.T) {
	ev, err := parseFill(fillRecord{Coin: "BTC", Px: "100", Sz: "1", Side: "B", Time: 1700000000000, Fee: "0.01"})
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "", ev.CommissionAsset)
}
