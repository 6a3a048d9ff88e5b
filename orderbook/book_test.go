package orderbook

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lvl(price, qty string) Level {
	return Level{Price: decimal.RequireFromString(price), Quantity: decimal.RequireFromString(qty)}
}

func TestBook_LoadSnapshot_DropsZeroQuantityLevels(t *testing.T) {
	b := New("binance", "BTCUSDT")
	err := b.LoadSnapshot(
		Levels{lvl("100", "1"), lvl("99", "0")},
		Levels{lvl("101", "2")},
		10, time.Now(),
	)
	require.NoError(t, err)

	snap := b.Snapshot(0)
	require.Len(t, snap.Bids, 1)
	assert.Equal(t, "100", snap.Bids[0].Price.String())
}

func TestBook_ApplyDelta_BeforeSnapshot_IsNotInitialized(t *testing.T) {
	b := New("binance", "BTCUSDT")
	err := b.ApplyDelta(&Update{Bids: Levels{lvl("100", "1")}, LastUpdateID: 1, Timestamp: time.Now()})
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestBook_ApplyDelta_OutOfOrder_IsNoOp(t *testing.T) {
	b := New("binance", "BTCUSDT")
	require.NoError(t, b.LoadSnapshot(Levels{lvl("100", "1")}, Levels{lvl("101", "1")}, 10, time.Now()))

	err := b.ApplyDelta(&Update{Bids: Levels{lvl("100", "5")}, LastUpdateID: 10, Timestamp: time.Now()})
	assert.ErrorIs(t, err, ErrOutOfOrder)

	snap := b.Snapshot(0)
	assert.Equal(t, "1", snap.Bids[0].Quantity.String())
}

func TestBook_ApplyDelta_ZeroQuantityRemovesLevel(t *testing.T) {
	b := New("binance", "BTCUSDT")
	require.NoError(t, b.LoadSnapshot(Levels{lvl("100", "1")}, Levels{lvl("101", "1")}, 10, time.Now()))

	err := b.ApplyDelta(&Update{Bids: Levels{lvl("100", "0")}, LastUpdateID: 11, Timestamp: time.Now()})
	require.NoError(t, err)

	snap := b.Snapshot(0)
	assert.Empty(t, snap.Bids)
}

func TestBook_ApplyDelta_CrossedBookInvalidates(t *testing.T) {
	b := New("binance", "BTCUSDT")
	require.NoError(t, b.LoadSnapshot(Levels{lvl("100", "1")}, Levels{lvl("101", "1")}, 10, time.Now()))

	err := b.ApplyDelta(&Update{Asks: Levels{lvl("99", "1")}, LastUpdateID: 11, Timestamp: time.Now()})
	assert.ErrorIs(t, err, ErrCrossedBook)
	assert.False(t, b.IsInitialized())
}

func TestSnapshot_DerivedMetrics(t *testing.T) {
	b := New("binance", "BTCUSDT")
	require.NoError(t, b.LoadSnapshot(
		Levels{lvl("100", "2"), lvl("99", "1")},
		Levels{lvl("101", "3"), lvl("102", "1")},
		1, time.Now(),
	))
	snap := b.Snapshot(0)

	bid, ok := snap.BestBid()
	require.True(t, ok)
	assert.Equal(t, "100", bid.Price.String())

	ask, ok := snap.BestAsk()
	require.True(t, ok)
	assert.Equal(t, "101", ask.Price.String())

	mid, ok := snap.Mid()
	require.True(t, ok)
	assert.True(t, mid.Equal(decimal.RequireFromString("100.5")))

	spread, ok := snap.Spread()
	require.True(t, ok)
	assert.True(t, spread.Equal(decimal.RequireFromString("1")))

	baseQty, quoteValue := snap.CumulativeDepth(true, 0)
	assert.True(t, baseQty.Equal(decimal.RequireFromString("3")))
	assert.True(t, quoteValue.Equal(decimal.RequireFromString("299")))
}

func TestSnapshot_Stale(t *testing.T) {
	b := New("binance", "BTCUSDT")
	ts := time.Now().Add(-time.Minute)
	require.NoError(t, b.LoadSnapshot(Levels{lvl("100", "1")}, Levels{lvl("101", "1")}, 1, ts))

	snap := b.Snapshot(0)
	assert.True(t, snap.Stale(time.Now(), 5*time.Second))
	assert.False(t, snap.Stale(time.Now(), time.Hour))
}
