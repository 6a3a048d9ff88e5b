package adapter

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shiftfx/mdcore/internal/backoff"
	"github.com/shiftfx/mdcore/internal/corelog"
	"github.com/shiftfx/mdcore/internal/venueerr"
)

// Connector is implemented by a venue-specific adapter. Connect performs
// one full attempt: dial, handshake/authenticate, subscribe, then run
// the message loop until the connection fails or ctx is cancelled. A nil
// return means ctx was cancelled (clean stop); a non-nil return is
// classified by the supervisor to decide whether to reconnect.
//
// Implementations must release all resources (sockets, HTTP sessions) on
// every exit path, including ctx cancellation (spec §5 Cancellation).
type Connector interface {
	Connect(ctx context.Context) error
}

// MaxReconnectAttempts bounds the supervisor loop; spec §4.1 describes
// this cap as "commonly very large, effectively unbounded". Zero means
// unbounded.
const MaxReconnectAttempts = 0

// Supervisor drives the reconnect lifecycle described in spec §4.1: it
// calls Connector.Connect repeatedly, applying exponential backoff
// between attempts, stopping only on a non-retryable (Auth) error, a
// reconnect cap, or an explicit Stop().
type Supervisor struct {
	Venue    string
	Stream   string // "depth" or "fills"
	Backoff  backoff.Policy
	MaxTries int // 0 = unbounded

	connector Connector
	stats     *Stats

	mu      sync.Mutex
	state   State
	cancel  context.CancelFunc
	running int32
	done    chan struct{}

	// OnTerminal is invoked (if set) when the supervisor stops due to a
	// non-retryable error, e.g. so the registry can mark the stream
	// unhealthy without spinning on bad credentials.
	OnTerminal func(err error)
}

// NewSupervisor builds a Supervisor around a Connector using the
// default capped-exponential backoff policy.
func NewSupervisor(venue, stream string, connector Connector, stats *Stats) *Supervisor {
	return &Supervisor{
		Venue:     venue,
		Stream:    stream,
		Backoff:   backoff.Default,
		connector: connector,
		stats:     stats,
		state:     StateIdle,
		done:      make(chan struct{}),
	}
}

// IsRunning reports whether the supervisor's reconnect loop is active.
func (s *Supervisor) IsRunning() bool {
	return atomic.LoadInt32(&s.running) == 1
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Supervisor) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Start begins the supervised reconnect loop. Idempotent: calling Start
// while already running logs a warning and returns nil, per spec §6
// ("start while running is a no-op with warning").
func (s *Supervisor) Start() error {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		corelog.Venue(corelog.Supervisor, s.Venue).Warn().Str("stream", s.Stream).Msg("start called while already running")
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancel = cancel
	s.done = make(chan struct{})
	s.state = StateConnecting
	s.mu.Unlock()

	go s.run(ctx)
	return nil
}

// Stop halts the reconnect loop and waits for it to exit. Idempotent:
// calling Stop while already stopped is a no-op.
func (s *Supervisor) Stop() error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return nil
	}
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	s.setState(StateStopped)
	return nil
}

func (s *Supervisor) run(ctx context.Context) {
	defer close(s.done)

	attempt := 0
	for {
		select {
		case <-ctx.Done():
			s.setState(StateStopped)
			return
		default:
		}

		s.setState(StateConnecting)
		err := s.connector.Connect(ctx)
		if err == nil {
			// Connect only returns nil when ctx was cancelled (clean
			// stop); a running connection that fails always returns a
			// non-nil, classified error.
			s.setState(StateStopped)
			return
		}

		if ctx.Err() != nil {
			s.setState(StateStopped)
			return
		}

		s.stats.RecordConnectionError()

		venueErr, ok := err.(*venueerr.Error)
		retryable := !ok || venueErr.Retryable()

		logEvt := corelog.Venue(corelog.Supervisor, s.Venue).Error().Err(err).Str("stream", s.Stream).Int("attempt", attempt)
		if !retryable {
			logEvt.Msg("non-retryable error, stopping adapter")
			s.setState(StateError)
			atomic.StoreInt32(&s.running, 0)
			if s.OnTerminal != nil {
				s.OnTerminal(err)
			}
			return
		}
		logEvt.Msg("connection attempt failed, will retry")

		if s.MaxTries > 0 && attempt >= s.MaxTries {
			corelog.Venue(corelog.Supervisor, s.Venue).Error().Msg("max reconnect attempts exceeded")
			s.setState(StateError)
			atomic.StoreInt32(&s.running, 0)
			if s.OnTerminal != nil {
				s.OnTerminal(err)
			}
			return
		}

		s.stats.RecordReconnect()
		policy := s.Backoff
		if sleepErr := policy.Sleep(ctx, attempt); sleepErr != nil {
			s.setState(StateStopped)
			return
		}
		attempt++
	}
}

// RecordConnected should be called by the Connector once it reaches a
// running message loop, so Stats reflects connect time accurately.
func (s *Supervisor) RecordConnected() {
	s.stats.RecordConnect(time.Now())
	s.setState(StateRunning)
}
