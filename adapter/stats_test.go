package adapter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStats_RecordConnect_FirstCallSetsConnectedTime(t *testing.T) {
	s := NewStats("testvenue", "depth")
	t1 := time.Now()
	s.RecordConnect(t1)
	t2 := t1.Add(time.Minute)
	s.RecordConnect(t2)

	snap := s.Get()
	assert.True(t, snap.ConnectedTime.Equal(t1))
	assert.True(t, snap.LastConnectTime.Equal(t2))
}

func TestStats_RecordFill_NeverDecreases(t *testing.T) {
	s := NewStats("testvenue", "fills")
	s.RecordFill(time.Now())
	s.RecordFill(time.Now())

	snap := s.Get()
	assert.Equal(t, int64(2), snap.TotalFills)
}

func TestStats_Get_FillsPerHourZeroWithoutConnection(t *testing.T) {
	s := NewStats("testvenue", "fills")
	snap := s.Get()
	assert.Zero(t, snap.FillsPerHour)
}

func TestStats_Get_FillsPerHourDerivedFromElapsedTime(t *testing.T) {
	s := NewStats("testvenue", "fills")
	s.RecordConnect(time.Now().Add(-2 * time.Hour))
	s.RecordFill(time.Now())
	s.RecordFill(time.Now())

	snap := s.Get()
	assert.InDelta(t, 1.0, snap.FillsPerHour, 0.1)
}

func TestStats_RecordReconnect_IncrementsCounter(t *testing.T) {
	s := NewStats("testvenue", "depth")
	s.RecordReconnect()
	s.RecordReconnect()
	snap := s.Get()
	assert.Equal(t, int64(2), snap.TotalReconnects)
}

func TestStats_RecordConnectionError_IncrementsCounter(t *testing.T) {
	s := NewStats("testvenue", "depth")
	s.RecordConnectionError()
	snap := s.Get()
	assert.Equal(t, int64(1), snap.ConnectionErrors)
}
