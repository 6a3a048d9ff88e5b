package bybit

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftfx/mdcore/fill"
)

func TestParseExecution_UsesFeeCurrencyNotFeeRate(t *testing.T) {
	// Regression test for the source-level bug flagged in spec §9:
	// Bybit's feeRate must never be mapped into CommissionAsset.
	rec := executionRecord{
		Symbol: "BTCUSDT", OrderID: "1", Side: "Buy",
		ExecQty: "0.1", ExecPrice: "50000", ExecID: "t1",
		ExecTime: "1700000000000", ExecFee: "0.5",
		FeeCurrency: "USDT", FeeRate: "0.0001",
	}

	ev, err := parseExecution(rec)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "USDT", ev.CommissionAsset)
	assert.NotEqual(t, "0.0001", ev.CommissionAsset)
	assert.True(t, ev.Commission.Equal(decimal.RequireFromString("0.5")))
	assert.Equal(t, fill.Buy, ev.Side)
}

func TestParseExecution_SellSideNormalized(t *testing.T) {
	rec := executionRecord{
		Symbol: "BTCUSDT", OrderID: "1", Side: "Sell",
		ExecQty: "1", ExecPrice: "100", ExecID: "t1",
		ExecTime: "1700000000000", ExecFee: "0", FeeCurrency: "USDT",
	}
	ev, err := parseExecution(rec)
	require.NoError(t, err)
	assert.Equal(t, fill.Sell, ev.Side)
}

func TestParseExecution_MalformedExecTimeErrors(t *testing.T) {
	rec := executionRecord{
		Symbol: "BTCUSDT", OrderID: "1", Side: "Buy",
		ExecQty: "1", ExecPrice: "100", ExecTime: "not-a-number",
	}
	_, err := parseExecution(rec)
	assert.Error(t, err)
}
