package backoff

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Duration_DoublesUntilCap(t *testing.T) {
	p := New(time.Second, 10*time.Second)
	assert.Equal(t, time.Second, p.Duration(0))
	assert.Equal(t, 2*time.Second, p.Duration(1))
	assert.Equal(t, 4*time.Second, p.Duration(2))
	assert.Equal(t, 8*time.Second, p.Duration(3))
	assert.Equal(t, 10*time.Second, p.Duration(4)) // would be 16s, capped
	assert.Equal(t, 10*time.Second, p.Duration(100))
}

func TestPolicy_Duration_NegativeAttemptTreatedAsZero(t *testing.T) {
	p := New(time.Second, 30*time.Second)
	assert.Equal(t, p.Duration(0), p.Duration(-5))
}

func TestPolicy_Sleep_CancelledContextReturnsErr(t *testing.T) {
	p := New(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Sleep(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPolicy_Sleep_CompletesAfterDuration(t *testing.T) {
	p := New(5*time.Millisecond, time.Second)
	err := p.Sleep(context.Background(), 0)
	assert.NoError(t, err)
}
