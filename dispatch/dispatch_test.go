package dispatch

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"powerhouse-bridge/device"
	"powerhouse-bridge/state"
)

type fakeTransmitter struct {
	err    error
	frames [][]byte
}

func (t *fakeTransmitter) Transmit(frame []byte) error {
	if t.err != nil {
		return t.err
	}
	t.frames = append(t.frames, frame)
	return nil
}

func TestAcceptedCommandUpdatesSetState(t *testing.T) {
	store := state.NewStore()
	tx := &fakeTransmitter{}
	d := NewDispatcher(tx, store)

	require.NoError(t, d.SetACOutput(true))

	setState := store.SetState()
	require.NotNil(t, setState.ACOutput)
	assert.True(t, *setState.ACOutput)

	require.Len(t, tx.frames, 1)
	assert.Equal(t, []byte{0x08, 0xee, 0x00, 0x00, 0x00, 0x02, 0x86, 0x0b, 0x00, 0x01, 0x8a}, tx.frames[0])

	counts := store.CommandCounts()
	assert.Equal(t, uint64(1), counts["ac_output"])
}

func TestOutOfDomainRejectedBeforeTransmit(t *testing.T) {
	store := state.NewStore()
	tx := &fakeTransmitter{}
	d := NewDispatcher(tx, store)

	cases := []error{
		d.SetScreenBrightness(4),
		d.SetScreenBrightness(-1),
		d.SetLed(5),
		d.SetRechargePower(100),
		d.SetRechargePower(2000),
		d.SetScreenTimeout(-1),
		d.SetScreenTimeout(70000),
		d.SetACTimer(-5),
		d.SetTwelveVoltTimer(1 << 17),
	}
	for _, err := range cases {
		assert.ErrorIs(t, err, ErrOutOfDomain)
	}

	assert.Empty(t, tx.frames)
	assert.Equal(t, state.NewStore().SetState(), store.SetState())
	assert.Empty(t, store.CommandCounts())
}

func TestNotConnectedLeavesStateUntouched(t *testing.T) {
	store := state.NewStore()
	tx := &fakeTransmitter{err: device.ErrNotConnected}
	d := NewDispatcher(tx, store)

	err := d.SetPowerSave(true)
	assert.ErrorIs(t, err, ErrNotConnected)

	setState := store.SetState()
	assert.Nil(t, setState.PowerSave)
	assert.Empty(t, store.CommandCounts())
}

func TestTransmitFailureMapped(t *testing.T) {
	store := state.NewStore()
	tx := &fakeTransmitter{err: errors.New("write characteristic failed")}
	d := NewDispatcher(tx, store)

	err := d.SetLed(2)
	assert.ErrorIs(t, err, ErrTransmitFailed)
	assert.Contains(t, err.Error(), "write characteristic failed")

	setState := store.SetState()
	assert.Nil(t, setState.LedLevel)
}

func TestWriteTimeoutIsTransmitFailure(t *testing.T) {
	store := state.NewStore()
	tx := &fakeTransmitter{err: device.ErrWriteTimeout}
	d := NewDispatcher(tx, store)

	err := d.SetRechargePower(800)
	assert.ErrorIs(t, err, ErrTransmitFailed)
}

func TestEverySetterEncodesDistinctOpcode(t *testing.T) {
	store := state.NewStore()
	tx := &fakeTransmitter{}
	d := NewDispatcher(tx, store)

	require.NoError(t, d.SetACOutput(true))
	require.NoError(t, d.SetTwelveVoltOutput(false))
	require.NoError(t, d.SetPowerSave(true))
	require.NoError(t, d.SetScreenBrightness(2))
	require.NoError(t, d.SetLed(4))
	require.NoError(t, d.SetRechargePower(1440))
	require.NoError(t, d.SetScreenTimeout(300))
	require.NoError(t, d.SetACTimer(0))
	require.NoError(t, d.SetTwelveVoltTimer(3600))

	require.Len(t, tx.frames, 9)
	seen := map[byte]bool{}
	for _, frame := range tx.frames {
		seen[frame[6]] = true
	}
	assert.Len(t, seen, 9)

	setState := store.SetState()
	require.NotNil(t, setState.TwelveVoltTimer)
	assert.Equal(t, uint16(3600), *setState.TwelveVoltTimer)
	require.NotNil(t, setState.RechargePower)
	assert.Equal(t, uint16(1440), *setState.RechargePower)

	counts := store.CommandCounts()
	assert.Len(t, counts, 9)
}
