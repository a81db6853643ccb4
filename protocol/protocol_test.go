package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"powerhouse-bridge/params"
)

func mustBrightness(t *testing.T, level uint8) Command {
	t.Helper()
	cmd, err := NewScreenBrightness(level)
	require.NoError(t, err)
	return cmd
}

func mustLed(t *testing.T, level uint8) Command {
	t.Helper()
	cmd, err := NewLed(level)
	require.NoError(t, err)
	return cmd
}

func mustRecharge(t *testing.T, watts uint16) Command {
	t.Helper()
	cmd, err := NewRechargePower(watts)
	require.NoError(t, err)
	return cmd
}

func allCommands(t *testing.T) []Command {
	t.Helper()
	return []Command{
		NewACOutput(true),
		NewTwelveVoltOutput(false),
		NewPowerSave(true),
		mustBrightness(t, 2),
		mustLed(t, 4),
		mustRecharge(t, 800),
		NewScreenTimeout(300),
		NewACTimer(3600),
		NewTwelveVoltTimer(0),
	}
}

func TestEncodeKnownFrames(t *testing.T) {
	// Pinned against captured frames; if these change, the layout
	// constant table changed.
	frame := Encode(NewACOutput(true))
	assert.Equal(t, []byte{0x08, 0xee, 0x00, 0x00, 0x00, 0x02, 0x86, 0x0b, 0x00, 0x01, 0x8a}, frame)

	frame = Encode(mustRecharge(t, 1440))
	assert.Equal(t, []byte{0x08, 0xee, 0x00, 0x00, 0x00, 0x02, 0x80, 0x0c, 0x00, 0xa0, 0x05, 0x29}, frame)
}

func TestEncodeDeterministic(t *testing.T) {
	for _, cmd := range allCommands(t) {
		assert.Equal(t, Encode(cmd), Encode(cmd), "command %s", cmd.Type())
	}
}

func TestCommandRoundTrip(t *testing.T) {
	for _, cmd := range allCommands(t) {
		frame := Encode(cmd)
		ct, paramBytes, err := DecodeCommandFrame(frame)
		require.NoError(t, err, "command %s", cmd.Type())
		assert.Equal(t, cmd.Type(), ct)
		assert.Equal(t, cmd.parameters(), paramBytes)
	}
}

func TestDecodeCommandFrameChecksumMismatch(t *testing.T) {
	frame := Encode(NewPowerSave(true))
	frame[len(frame)-1]++
	_, _, err := DecodeCommandFrame(frame)
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestDecodeCommandFrameBadHeader(t *testing.T) {
	frame := Encode(NewPowerSave(true))
	frame[0] = 0x09
	_, _, err := DecodeCommandFrame(frame)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestCommandConstructorsRejectOutOfRange(t *testing.T) {
	_, err := NewScreenBrightness(4)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = NewLed(5)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = NewRechargePower(199)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = NewRechargePower(1441)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

// telemetryFrame builds a well-formed telemetry notification with a
// few recognizable values.
func telemetryFrame() []byte {
	data := make([]byte, telemetryFrameLen)
	data[offPacketType] = byte(packetTelemetry)
	data[offTelemetryID] = byte(telemetryTelemetry)
	data[offFrameLength] = telemetryFrameLen - headerLen

	data[17] = 5 // 0.5h
	data[18] = 1 // 1 day
	data[19] = 0x2c
	data[20] = 0x01 // AC input 300W
	data[21] = 0x64 // AC outlet 100W
	data[63] = 1    // AC outlet on
	data[66] = 25   // internal temp
	data[67] = 0xF6 // external temp, -10 as int8
	data[68] = byte(params.BatteryCharging)
	data[70] = 52 // internal %
	data[71] = 56 // external %
	data[72] = 54 // total %
	data[13] = 0x10
	data[14] = 0x0e // 12V timer 3600s
	data[80] = 1    // 12V port 0 on
	copy(data[85:101], []byte("AP767SN000123456"))
	return data
}

func TestDecodeTelemetry(t *testing.T) {
	pkt, err := DecodeNotification(telemetryFrame())
	require.NoError(t, err)

	tp, ok := pkt.(*TelemetryPacket)
	require.True(t, ok)

	telem := tp.Telemetry
	assert.Equal(t, uint8(54), telem.TotalBatteryPercentage)
	assert.Equal(t, params.BatteryCharging, telem.BatteryState)
	assert.InDelta(t, 24.5, telem.BatteryRemainingHours, 0.001)
	assert.Equal(t, uint16(300), telem.ACInputWatts)
	assert.True(t, telem.ACOutlet.IsOn)
	assert.Equal(t, uint16(100), telem.ACOutlet.Watts)
	assert.Equal(t, int8(25), telem.InternalBattery.TemperatureC)
	assert.Equal(t, int8(-10), telem.ExternalBattery.TemperatureC)
	assert.Equal(t, uint8(52), telem.InternalBattery.Percentage)
	assert.Equal(t, uint8(56), telem.ExternalBattery.Percentage)
	assert.Equal(t, "AP767SN000123456", telem.DeviceSerial)

	require.Len(t, telem.TwelveVolt, 2)
	assert.True(t, telem.TwelveVolt[0].IsOn)
	require.NotNil(t, telem.TwelveVolt[0].TimeRemainingSeconds)
	assert.Equal(t, uint16(3600), *telem.TwelveVolt[0].TimeRemainingSeconds)
	require.Len(t, telem.USBC, 3)
	require.Len(t, telem.USBA, 2)
}

func TestDecodeTelemetryRemainingUnknown(t *testing.T) {
	data := telemetryFrame()
	data[18] = 0xFF
	pkt, err := DecodeNotification(data)
	require.NoError(t, err)
	assert.Equal(t, params.RemainingHoursUnknown, pkt.(*TelemetryPacket).Telemetry.BatteryRemainingHours)
}

func TestDecodeTooShortNeverPanics(t *testing.T) {
	long := telemetryFrame()
	for l := 0; l < headerLen; l++ {
		_, err := DecodeNotification(long[:l])
		assert.ErrorIs(t, err, ErrTooShort, "length %d", l)
	}
	// Valid header but truncated body.
	_, err := DecodeNotification(long[:50])
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestDecodeUnknownBatteryState(t *testing.T) {
	data := telemetryFrame()
	data[68] = 9
	_, err := DecodeNotification(data)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestDecodeUnknownPacketType(t *testing.T) {
	data := telemetryFrame()
	data[offPacketType] = 7
	_, err := DecodeNotification(data)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestDecodeStateAck(t *testing.T) {
	data := make([]byte, stateAckFrameLen)
	data[offPacketType] = byte(packetTelemetry)
	data[offTelemetryID] = byte(telemetryStateAck)
	data[9] = 1
	data[10] = 0
	data[11] = 1
	data[12] = byte(params.LedSos)

	pkt, err := DecodeNotification(data)
	require.NoError(t, err)

	ack, ok := pkt.(*StateAckPacket)
	require.True(t, ok)
	assert.True(t, ack.StateAck.ACOutletOn)
	assert.False(t, ack.StateAck.TwelveVoltOn)
	assert.True(t, ack.StateAck.PowerSaveOn)
	assert.Equal(t, params.LedSos, ack.StateAck.LedState)
}

func TestDecodeStateAckUnknownLed(t *testing.T) {
	data := make([]byte, stateAckFrameLen)
	data[offPacketType] = byte(packetTelemetry)
	data[offTelemetryID] = byte(telemetryStateAck)
	data[12] = 9
	_, err := DecodeNotification(data)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestDecodeCommandAck(t *testing.T) {
	data := make([]byte, headerLen)
	data[offPacketType] = byte(packetCommandAck)
	data[offTelemetryID] = byte(CmdACOutput)

	pkt, err := DecodeNotification(data)
	require.NoError(t, err)
	ack, ok := pkt.(*CommandAckPacket)
	require.True(t, ok)
	assert.Equal(t, CmdACOutput, ack.CommandType)

	data[offTelemetryID] = 0x55
	_, err = DecodeNotification(data)
	assert.ErrorIs(t, err, ErrOutOfRange)
}
