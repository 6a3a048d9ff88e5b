package adapter

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftfx/mdcore/internal/backoff"
	"github.com/shiftfx/mdcore/internal/venueerr"
)

type fakeConnector struct {
	attempts int32
	behavior func(attempt int) error
}

func (f *fakeConnector) Connect(ctx context.Context) error {
	n := int(atomic.AddInt32(&f.attempts, 1))
	return f.behavior(n)
}

func TestSupervisor_RetriesOnRetryableError(t *testing.T) {
	fc := &fakeConnector{behavior: func(attempt int) error {
		if attempt < 3 {
			return venueerr.Connf("testvenue", "boom")
		}
		return nil
	}}
	sup := NewSupervisor("testvenue", "depth", fc, NewStats("testvenue", "depth"))
	sup.Backoff = backoff.New(time.Millisecond, 5*time.Millisecond)

	require.NoError(t, sup.Start())
	require.Eventually(t, func() bool { return atomic.LoadInt32(&fc.attempts) >= 3 }, time.Second, time.Millisecond)
	require.NoError(t, sup.Stop())
}

func TestSupervisor_StopsOnNonRetryableAuthError(t *testing.T) {
	fc := &fakeConnector{behavior: func(attempt int) error {
		return venueerr.Authf("testvenue", "bad credentials")
	}}
	sup := NewSupervisor("testvenue", "depth", fc, NewStats("testvenue", "depth"))
	sup.Backoff = backoff.New(time.Millisecond, 5*time.Millisecond)

	var terminalErr error
	done := make(chan struct{})
	sup.OnTerminal = func(err error) {
		terminalErr = err
		close(done)
	}

	require.NoError(t, sup.Start())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OnTerminal never called")
	}

	assert.Error(t, terminalErr)
	assert.EqualValues(t, 1, atomic.LoadInt32(&fc.attempts))
	require.Eventually(t, func() bool { return !sup.IsRunning() }, time.Second, time.Millisecond)
}

func TestSupervisor_StopsAtMaxTries(t *testing.T) {
	fc := &fakeConnector{behavior: func(attempt int) error {
		return venueerr.Connf("testvenue", "boom %d", attempt)
	}}
	sup := NewSupervisor("testvenue", "depth", fc, NewStats("testvenue", "depth"))
	sup.Backoff = backoff.New(time.Millisecond, 5*time.Millisecond)
	sup.MaxTries = 2

	done := make(chan struct{})
	sup.OnTerminal = func(err error) { close(done) }

	require.NoError(t, sup.Start())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OnTerminal never called")
	}
	require.Eventually(t, func() bool { return !sup.IsRunning() }, time.Second, time.Millisecond)
}

func TestSupervisor_Stop_CleanlyCancelsContext(t *testing.T) {
	started := make(chan struct{}, 1)
	waiter := &ctxWaitingConnector{started: started}
	sup := NewSupervisor("testvenue", "depth", waiter, NewStats("testvenue", "depth"))

	require.NoError(t, sup.Start())
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("connector never started")
	}
	require.NoError(t, sup.Stop())
	assert.False(t, sup.IsRunning())
}

type ctxWaitingConnector struct {
	started chan struct{}
}

func (w *ctxWaitingConnector) Connect(ctx context.Context) error {
	select {
	case w.started <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return nil
}
