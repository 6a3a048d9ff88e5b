package okx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstIDConversion_RoundTrips(t *testing.T) {
	assert.Equal(t, "BTC-USDT-SWAP", toInstID("BTCUSDT"))
	assert.Equal(t, "BTCUSDT", fromInstID("BTC-USDT-SWAP"))
}

func TestDepthAdapter_HandleFrame_SnapshotThenUpdate(t *testing.T) {
	d := NewDepthAdapter("BTCUSDT")

	snapshot := []byte(`{"arg":{"channel":"books","instId":"BTC-USDT-SWAP"},"action":"snapshot",
		"data":[{"bids":[["100","1","0","1"]],"asks":[["101","2","0","1"]],"ts":"1700000000000","seqId":1}]}`)
	require.NoError(t, d.handleFrame(snapshot))

	snap, err := d.GetLatestOrderbook("BTCUSDT")
	require.NoError(t, err)
	require.True(t, snap.Initialized)

	update := []byte(`{"arg":{"channel":"books","instId":"BTC-USDT-SWAP"},"action":"update",
		"data":[{"bids":[["100","0","0","0"]],"asks":[],"ts":"1700000000100","seqId":2}]}`)
	require.NoError(t, d.handleFrame(update))

	snap, err = d.GetLatestOrderbook("BTCUSDT")
	require.NoError(t, err)
	assert.Empty(t, snap.Bids)
}

func TestParseOrder_ZeroFillSzYieldsNoEvent(t *testing.T) {
	rec := orderRecord{InstID: "BTC-USDT-SWAP", OrdID: "1", Side: "buy", FillSz: "0"}
	ev, err := parseOrder(rec)
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestParseOrder_NonZeroFillSzEmitsFill(t *testing.T) {
	rec := orderRecord{
		InstID: "BTC-USDT-SWAP", OrdID: "1", Side: "sell",
		FillSz: "0.5", FillPx: "50000", TradeID: "t1",
		FillTime: "1700000000000", FillFee: "-1.2", FillFeeCcy: "USDT",
	}
	ev, err := parseOrder(rec)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "BTCUSDT", ev.Symbol)
	assert.Equal(t, "USDT", ev.CommissionAsset)
}
