package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftfx/mdcore/orderbook"
)

func TestStreamManager_CreateAndStart_TracksPair(t *testing.T) {
	m := NewStreamManager(NewFactory())
	err := m.CreateAndStart(Binance, Bybit, "BTCUSDT",
		func(orderbook.Snapshot) {}, func(orderbook.Snapshot) {})
	require.NoError(t, err)

	require.NoError(t, m.StopAndCleanup(Binance, Bybit, "BTCUSDT"))
}

func TestStreamManager_StopAndCleanup_UnknownPairIsNoop(t *testing.T) {
	m := NewStreamManager(NewFactory())
	assert.NoError(t, m.StopAndCleanup(Binance, Bybit, "NOPE"))
}

func TestStreamManager_StopAll_StopsEveryTrackedPair(t *testing.T) {
	m := NewStreamManager(NewFactory())
	require.NoError(t, m.CreateAndStart(Binance, Bybit, "BTCUSDT",
		func(orderbook.Snapshot) {}, func(orderbook.Snapshot) {}))
	require.NoError(t, m.CreateAndStart(OKX, Hyperliquid, "ETHUSDT",
		func(orderbook.Snapshot) {}, func(orderbook.Snapshot) {}))

	assert.NoError(t, m.StopAll())
	assert.Empty(t, m.pairs)
}

func TestStreamManager_HealthCheck_EmptyIsHealthy(t *testing.T) {
	m := NewStreamManager(NewFactory())
	report := m.HealthCheck()
	assert.Equal(t, HealthHealthy, report.OverallStatus)
	assert.Empty(t, report.Issues)
	assert.Empty(t, report.Warnings)
}

func TestStreamManager_HealthCheck_NotRunningStreamIsIssue(t *testing.T) {
	m := NewStreamManager(NewFactory())
	require.NoError(t, m.CreateAndStart(Binance, Bybit, "BTCUSDT",
		func(orderbook.Snapshot) {}, func(orderbook.Snapshot) {}))
	defer m.StopAll()

	// The streams were just started and haven't reached a live websocket
	// connection yet, so their supervisors are not yet in StateRunning.
	report := m.HealthCheck()
	assert.Equal(t, HealthUnhealthy, report.OverallStatus)
	assert.NotEmpty(t, report.Issues)
}
