package binance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftfx/mdcore/fill"
)

func TestFillAdapter_ParseFrame_EmitsFillOnPartiallyFilled(t *testing.T) {
	f := NewFillAdapter(Credentials{APIKey: "k"}, nil)
	raw := []byte(`{
		"e": "ORDER_TRADE_UPDATE",
		"o": {
			"s": "BTCUSDT", "S": "BUY", "X": "PARTIALLY_FILLED",
			"l": "0.5", "ap": "50000", "i": 123, "t": 456,
			"n": "0.01", "N": "USDT", "T": 1700000000000
		}
	}`)

	ev, err := f.parseFrame(raw)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "BTCUSDT", ev.Symbol)
	assert.Equal(t, fill.Buy, ev.Side)
	assert.Equal(t, "123", ev.OrderID)
	assert.Equal(t, "456", ev.TradeID)
	assert.True(t, ev.Quantity.Equal(decimal.RequireFromString("0.5")))
}

// TestFillAdapter_ParseFrame_LiteralScenario4 reproduces spec §8 scenario
// 4's exact frame: quantity arrives as "z" (no "l") and the transact time
// arrives only as the envelope's top-level "T" (no "o.T").
func TestFillAdapter_ParseFrame_LiteralScenario4(t *testing.T) {
	f := NewFillAdapter(Credentials{APIKey: "k"}, nil)
	raw := []byte(`{"e":"ORDER_TRADE_UPDATE","T":1700000000000,"o":{
		"s":"BTCUSDT","i":42,"S":"BUY","X":"FILLED",
		"z":"1.0","ap":"50000","t":7,"n":"0.05","N":"USDT"
	}}`)

	ev, err := f.parseFrame(raw)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, venueName, ev.Venue)
	assert.Equal(t, "BTCUSDT", ev.Symbol)
	assert.Equal(t, fill.Buy, ev.Side)
	assert.Equal(t, "42", ev.OrderID)
	assert.Equal(t, "7", ev.TradeID)
	assert.True(t, ev.Quantity.Equal(decimal.RequireFromString("1.0")))
	assert.True(t, ev.Price.Equal(decimal.RequireFromString("50000")))
	assert.True(t, ev.Commission.Equal(decimal.RequireFromString("0.05")))
	assert.Equal(t, "USDT", ev.CommissionAsset)
	assert.Equal(t, int64(1700000000), ev.Timestamp.Unix())
}

func TestFillAdapter_ParseFrame_IgnoresNonTerminalOrderStatus(t *testing.T) {
	f := NewFillAdapter(Credentials{APIKey: "k"}, nil)
	raw := []byte(`{"e":"ORDER_TRADE_UPDATE","o":{"s":"BTCUSDT","S":"BUY","X":"NEW","l":"0","ap":"0","i":1,"t":0,"n":"0","N":"USDT","T":1}}`)

	ev, err := f.parseFrame(raw)
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestFillAdapter_ParseFrame_IgnoresNonOrderTradeEvents(t *testing.T) {
	f := NewFillAdapter(Credentials{APIKey: "k"}, nil)
	raw := []byte(`{"e":"ACCOUNT_UPDATE"}`)

	ev, err := f.parseFrame(raw)
	require.NoError(t, err)
	assert.Nil(t, ev)
}
