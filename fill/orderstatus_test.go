package fill

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestOrderStatus_AddFill_VWAPAcrossPartials(t *testing.T) {
	now := time.Now()
	o := NewOrderStatus("o1", dec("10"), now)

	o.AddFill(dec("4"), dec("100"), now.Add(time.Second))
	assert.Equal(t, StatusPartiallyFilled, o.Status)
	assert.True(t, o.AVGPrice.Equal(dec("100")))

	o.AddFill(dec("6"), dec("110"), now.Add(2*time.Second))
	assert.Equal(t, StatusFilled, o.Status)
	// VWAP = (4*100 + 6*110) / 10 = 106
	assert.True(t, o.AVGPrice.Equal(dec("106")))
	assert.True(t, o.FilledQuantity.Equal(dec("10")))
}

func TestOrderStatus_AddFill_ClampsOverfill(t *testing.T) {
	now := time.Now()
	o := NewOrderStatus("o1", dec("5"), now)

	o.AddFill(dec("8"), dec("100"), now)

	assert.Equal(t, StatusFilled, o.Status)
	assert.True(t, o.FilledQuantity.Equal(dec("5")))
	assert.True(t, o.RemainingQuantity().IsZero())
}

func TestOrderStatus_AddFill_IgnoresNonPositiveQuantity(t *testing.T) {
	now := time.Now()
	o := NewOrderStatus("o1", dec("5"), now)

	o.AddFill(dec("-1"), dec("100"), now)
	o.AddFill(dec("0"), dec("100"), now)

	assert.Equal(t, StatusNew, o.Status)
	assert.True(t, o.FilledQuantity.IsZero())
}

func TestOrderStatus_AddCommission_AccumulatesAbsoluteValue(t *testing.T) {
	o := NewOrderStatus("o1", dec("5"), time.Now())
	o.AddCommission(dec("-0.5"))
	o.AddCommission(dec("0.25"))
	assert.True(t, o.Commission.Equal(dec("0.75")))
}

func TestOrderStatus_CancelAndFail(t *testing.T) {
	now := time.Now()
	o := NewOrderStatus("o1", dec("5"), now)

	o.Cancel(now.Add(time.Minute))
	assert.Equal(t, StatusCanceled, o.Status)

	o2 := NewOrderStatus("o2", dec("5"), now)
	o2.Fail(now.Add(time.Minute))
	assert.Equal(t, StatusFailed, o2.Status)
}

func TestEvent_SignedQuantityAndValidity(t *testing.T) {
	ev := Event{
		Venue: "binance", Symbol: "BTCUSDT", OrderID: "1",
		Side: Sell, Quantity: dec("2"), Price: dec("100"),
		Timestamp: time.Now(),
	}
	require.True(t, ev.Valid())
	assert.True(t, ev.SignedQuantity().Equal(dec("-2")))
	assert.True(t, ev.NotionalValue().Equal(dec("200")))

	invalid := ev
	invalid.Symbol = ""
	assert.False(t, invalid.Valid())
}

func TestHedgeEvent_LatencyMS(t *testing.T) {
	base := time.Now()
	h := HedgeEvent{
		Original: Event{Timestamp: base},
		Hedge:    Event{Timestamp: base.Add(250 * time.Millisecond)},
	}
	assert.InDelta(t, 250.0, h.LatencyMS(), 0.001)
}
