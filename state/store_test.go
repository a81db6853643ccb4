package state

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"powerhouse-bridge/params"
)

func TestTelemetryEmptyUntilFirstApply(t *testing.T) {
	s := NewStore()
	_, ok := s.Telemetry()
	assert.False(t, ok)

	s.ApplyTelemetry(params.Telemetry{TotalBatteryPercentage: 42})
	telem, ok := s.Telemetry()
	require.True(t, ok)
	assert.Equal(t, uint8(42), telem.TotalBatteryPercentage)
}

func TestTelemetrySnapshotIsACopy(t *testing.T) {
	s := NewStore()
	secs := uint16(100)
	s.ApplyTelemetry(params.Telemetry{
		TwelveVolt: []params.Outlet{{IsOn: true, Watts: 50, TimeRemainingSeconds: &secs}},
	})

	snap, ok := s.Telemetry()
	require.True(t, ok)
	snap.TwelveVolt[0].Watts = 999
	*snap.TwelveVolt[0].TimeRemainingSeconds = 1

	again, _ := s.Telemetry()
	assert.Equal(t, uint16(50), again.TwelveVolt[0].Watts)
	assert.Equal(t, uint16(100), *again.TwelveVolt[0].TimeRemainingSeconds)
}

func TestSetStateSnapshotIsACopy(t *testing.T) {
	s := NewStore()
	s.ApplyCommandResult("ac_output", func(ss *params.SetState) {
		v := true
		ss.ACOutput = &v
	})

	snap := s.SetState()
	require.NotNil(t, snap.ACOutput)
	*snap.ACOutput = false

	again := s.SetState()
	assert.True(t, *again.ACOutput)
}

func TestCommandCounts(t *testing.T) {
	s := NewStore()
	s.ApplyCommandResult("led", nil)
	s.ApplyCommandResult("led", nil)
	s.ApplyCommandResult("power_save", nil)

	counts := s.CommandCounts()
	assert.Equal(t, uint64(2), counts["led"])
	assert.Equal(t, uint64(1), counts["power_save"])

	counts["led"] = 0
	assert.Equal(t, uint64(2), s.CommandCounts()["led"])
}

func TestAttemptCounter(t *testing.T) {
	s := NewStore()

	s.SetConnectionState(params.StateScanning, nil)
	s.SetConnectionState(params.StateDisconnected, errors.New("scan timed out"))
	s.SetConnectionState(params.StateScanning, nil)
	s.SetConnectionState(params.StateConnecting, nil)

	status := s.Status()
	assert.Equal(t, uint64(2), status.Attempts)
	assert.Equal(t, "scan timed out", status.LastError)

	s.SetConnectionState(params.StateConnected, nil)
	status = s.Status()
	assert.Equal(t, uint64(0), status.Attempts)
	assert.Empty(t, status.LastError)
	assert.Equal(t, params.StateConnected, status.State)
}
