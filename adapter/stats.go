// Package adapter implements the common venue adapter framework from
// spec §4.1: the supervised reconnect lifecycle, stats collection, the
// generic order book reconstruction contract (§4.2) and the
// DepthSource/FillSource consumer contracts (§6).
package adapter

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsOnce sync.Once

	reconnectsTotal      *prometheus.CounterVec
	connectionErrorsTotal *prometheus.CounterVec
	fillsTotal           *prometheus.CounterVec
	stalenessSeconds     *prometheus.GaugeVec
)

func registerMetrics() {
	metricsOnce.Do(func() {
		reconnectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mdcore_adapter_reconnects_total",
			Help: "Total reconnect attempts made by a venue adapter.",
		}, []string{"venue", "stream"})
		connectionErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mdcore_adapter_connection_errors_total",
			Help: "Total connection errors observed by a venue adapter.",
		}, []string{"venue", "stream"})
		fillsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mdcore_adapter_fills_total",
			Help: "Total fills forwarded by a venue's fill adapter.",
		}, []string{"venue"})
		stalenessSeconds = promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mdcore_adapter_orderbook_staleness_seconds",
			Help: "Seconds since the last applied orderbook update.",
		}, []string{"venue", "symbol"})
	})
}

// Snapshot is the plain, JSON-friendly form of an adapter's statistics,
// matching spec §6's get_stats() fields.
type Snapshot struct {
	ConnectedTime     time.Time
	LastConnectTime   time.Time
	TotalReconnects    int64
	ConnectionErrors   int64
	TotalFills         int64
	LastFillTime       time.Time
	FillsPerHour       float64
}

// Stats are the atomic counters exposed by every adapter (spec §4.1
// "Exposed statistics"). Safe for concurrent use: written from the
// message loop, read from the consumer-facing GetStats().
type Stats struct {
	venue  string
	stream string // "depth" or "fills"

	mu              sync.RWMutex
	connectedTime   time.Time
	lastConnectTime time.Time

	totalReconnects  int64
	connectionErrors int64
	totalFills       int64
	lastFillTime     time.Time
}

// NewStats builds a Stats tracker for a venue's depth or fill stream.
func NewStats(venue, stream string) *Stats {
	registerMetrics()
	return &Stats{venue: venue, stream: stream}
}

// RecordConnect stamps connect time (first connect sets ConnectedTime).
func (s *Stats) RecordConnect(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connectedTime.IsZero() {
		s.connectedTime = at
	}
	s.lastConnectTime = at
}

// RecordReconnect increments the reconnect counter.
func (s *Stats) RecordReconnect() {
	atomic.AddInt64(&s.totalReconnects, 1)
	reconnectsTotal.WithLabelValues(s.venue, s.stream).Inc()
}

// RecordConnectionError increments the connection-error counter.
func (s *Stats) RecordConnectionError() {
	atomic.AddInt64(&s.connectionErrors, 1)
	connectionErrorsTotal.WithLabelValues(s.venue, s.stream).Inc()
}

// RecordFill increments total_fills and stamps last_fill_time (never
// decreases, per spec §8 invariant).
func (s *Stats) RecordFill(at time.Time) {
	atomic.AddInt64(&s.totalFills, 1)
	fillsTotal.WithLabelValues(s.venue).Inc()
	s.mu.Lock()
	s.lastFillTime = at
	s.mu.Unlock()
}

// RecordStaleness publishes the current staleness gauge for a symbol.
func (s *Stats) RecordStaleness(symbol string, seconds float64) {
	stalenessSeconds.WithLabelValues(s.venue, symbol).Set(seconds)
}

// Get returns a consistent point-in-time Snapshot of the stats,
// including the derived fills_per_hour rate.
func (s *Stats) Get() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		ConnectedTime:    s.connectedTime,
		LastConnectTime:  s.lastConnectTime,
		TotalReconnects:  atomic.LoadInt64(&s.totalReconnects),
		ConnectionErrors: atomic.LoadInt64(&s.connectionErrors),
		TotalFills:       atomic.LoadInt64(&s.totalFills),
		LastFillTime:     s.lastFillTime,
	}
	if !s.connectedTime.IsZero() {
		hours := time.Since(s.connectedTime).Hours()
		if hours > 0 {
			snap.FillsPerHour = float64(snap.TotalFills) / hours
		}
	}
	return snap
}
