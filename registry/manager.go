package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/shiftfx/mdcore/adapter"
)

// stalenessWarningThreshold is the "more than 60 seconds since the last
// update" rule from spec §4.5 health_check degradation rules.
const stalenessWarningThreshold = 60 * time.Second

// pairKey builds the composite key "venue_a-venue_b-symbol" spec §4.5
// names for a cross-venue stream pair.
func pairKey(venueA, venueB, symbol string) string {
	return fmt.Sprintf("%s-%s-%s", venueA, venueB, symbol)
}

// streamPair is one tracked cross-venue symbol's two depth streams.
type streamPair struct {
	venueA, venueB, symbol string
	streamA, streamB       adapter.DepthSource
}

// HealthIssue describes a hard failure: a tracked stream whose
// supervisor is not in the running state.
type HealthIssue struct {
	Key     string
	Venue   string
	Symbol  string
	State   adapter.State
	Message string
}

// HealthWarning describes a soft degradation: a running stream whose
// last published update is older than the staleness threshold.
type HealthWarning struct {
	Key       string
	Venue     string
	Symbol    string
	StaleFor  time.Duration
	Message   string
}

// HealthStatus is the overall health classification returned by
// health_check (spec §4.5): "healthy" with no issues or warnings,
// "degraded" with warnings only, "unhealthy" with any issue.
type HealthStatus string

// Overall health classifications.
const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// HealthReport is the result of a StreamManager health_check call.
type HealthReport struct {
	OverallStatus HealthStatus
	Issues        []HealthIssue
	Warnings      []HealthWarning
}

// StreamManager tracks every live cross-venue symbol pair created through
// a Factory and exposes aggregate lifecycle and health operations over
// them (spec §4.5 StreamManager).
type StreamManager struct {
	factory *Factory

	mu    sync.Mutex
	pairs map[string]*streamPair
}

// NewStreamManager constructs an empty manager backed by factory.
func NewStreamManager(factory *Factory) *StreamManager {
	return &StreamManager{factory: factory, pairs: make(map[string]*streamPair)}
}

// CreateAndStart builds a venueA/venueB symbol pair via the manager's
// Factory, starts both streams, and tracks them under their composite
// key for later lookup, stop, or health reporting.
func (m *StreamManager) CreateAndStart(venueA, venueB, symbol string, cbA, cbB adapter.DepthCallback) error {
	streamA, streamB, err := m.factory.CreateSymbolStreams(venueA, venueB, symbol, cbA, cbB)
	if err != nil {
		return err
	}
	if err := StartStreams(streamA, streamB); err != nil {
		_ = StopStreams(streamA, streamB)
		return err
	}

	key := pairKey(venueA, venueB, symbol)
	m.mu.Lock()
	m.pairs[key] = &streamPair{venueA: venueA, venueB: venueB, symbol: symbol, streamA: streamA, streamB: streamB}
	m.mu.Unlock()
	return nil
}

// StopAndCleanup stops one tracked pair and removes it from the manager
// (spec §4.5 stop_and_cleanup). A missing key is a no-op.
func (m *StreamManager) StopAndCleanup(venueA, venueB, symbol string) error {
	key := pairKey(venueA, venueB, symbol)
	m.mu.Lock()
	pair, ok := m.pairs[key]
	if ok {
		delete(m.pairs, key)
	}
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return StopStreams(pair.streamA, pair.streamB)
}

// StopAll stops every tracked pair (spec §4.5 stop_all), continuing past
// individual stream errors, and returns the first error encountered.
func (m *StreamManager) StopAll() error {
	m.mu.Lock()
	pairs := make([]*streamPair, 0, len(m.pairs))
	for _, p := range m.pairs {
		pairs = append(pairs, p)
	}
	m.pairs = make(map[string]*streamPair)
	m.mu.Unlock()

	var first error
	for _, p := range pairs {
		if err := StopStreams(p.streamA, p.streamB); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// HealthCheck evaluates every tracked pair against the spec §4.5
// degradation rules: any adapter whose supervisor is not running is an
// issue; a running adapter whose last published snapshot is older than
// stalenessWarningThreshold is a warning.
func (m *StreamManager) HealthCheck() HealthReport {
	m.mu.Lock()
	pairs := make([]*streamPair, 0, len(m.pairs))
	for _, p := range m.pairs {
		pairs = append(pairs, p)
	}
	m.mu.Unlock()

	report := HealthReport{OverallStatus: HealthHealthy}
	now := time.Now()

	check := func(key, venue, symbol string, stream adapter.DepthSource, sup *adapter.Supervisor) {
		if sup == nil {
			return // stream type doesn't expose a supervisor, nothing to evaluate
		}
		if sup.State() != adapter.StateRunning {
			report.Issues = append(report.Issues, HealthIssue{
				Key: key, Venue: venue, Symbol: symbol, State: sup.State(),
				Message: fmt.Sprintf("%s/%s depth stream is %s, not running", venue, symbol, sup.State()),
			})
			return
		}
		snap, err := stream.GetLatestOrderbook(symbol)
		if err != nil || !snap.Initialized {
			return // running but not yet initialized is not a failure
		}
		if age := now.Sub(snap.Timestamp); age > stalenessWarningThreshold {
			report.Warnings = append(report.Warnings, HealthWarning{
				Key: key, Venue: venue, Symbol: symbol, StaleFor: age,
				Message: fmt.Sprintf("%s/%s depth stream stale for %s", venue, symbol, age.Round(time.Second)),
			})
		}
	}

	for _, p := range pairs {
		key := pairKey(p.venueA, p.venueB, p.symbol)
		check(key, p.venueA, p.symbol, p.streamA, streamSupervisor(p.streamA))
		check(key, p.venueB, p.symbol, p.streamB, streamSupervisor(p.streamB))
	}

	switch {
	case len(report.Issues) > 0:
		report.OverallStatus = HealthUnhealthy
	case len(report.Warnings) > 0:
		report.OverallStatus = HealthDegraded
	}
	return report
}

// supervisorProvider is satisfied by every venue DepthAdapter through its
// embedded *adapter.BaseDepthAdapter.
type supervisorProvider interface {
	Supervisor() *adapter.Supervisor
}

func streamSupervisor(s adapter.DepthSource) *adapter.Supervisor {
	if p, ok := s.(supervisorProvider); ok {
		return p.Supervisor()
	}
	return nil
}
