// Package protocol implements the PowerHouse 767 BLE frame codec:
// decoding notification frames into typed packets and encoding control
// commands into the device's command-frame layout. It is pure; all
// I/O lives in the device package.
//
// The byte offsets below are a versioned constant table pinned against
// frames captured from a real device. They are not inferred at runtime.
package protocol

import (
	"fmt"

	"github.com/pkg/errors"
)

// Frame layout constants.
const (
	// headerLen is the minimum number of bytes needed to read the
	// notification header (packet type, telemetry id, length).
	headerLen = 10
	// telemetryFrameLen is the minimum length of a full telemetry frame.
	telemetryFrameLen = 102
	// stateAckFrameLen is the minimum length of a state-ack frame.
	stateAckFrameLen = 13

	offPacketType  = 5
	offTelemetryID = 6
	offFrameLength = 7

	// remainingDayUnknown in the day byte means the device has no
	// remaining-time estimate.
	remainingDayUnknown = 0xFF
)

// commandHeader prefixes every outbound command frame. Verified once
// against a captured write to the 0x7777 characteristic.
var commandHeader = [6]byte{0x08, 0xee, 0x00, 0x00, 0x00, 0x02}

// Decode error taxonomy. Always recoverable: callers log and drop the
// frame, they never tear down the link over a single bad frame.
var (
	ErrTooShort         = errors.New("frame too short")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrOutOfRange       = errors.New("value out of range")
)

// packetKind discriminates the notification header's packet type byte.
type packetKind byte

const (
	packetTelemetry  packetKind = 1
	packetCommandAck packetKind = 2
)

// telemetryKind discriminates telemetry-class frames.
type telemetryKind byte

const (
	telemetryStateAck  telemetryKind = 0x48
	telemetryTelemetry telemetryKind = 0x49
)

// CommandType is the opcode of a settable parameter.
type CommandType byte

const (
	CmdACTimer          CommandType = 0x02
	CmdTwelveVoltTimer  CommandType = 0x03
	CmdRechargePower    CommandType = 0x80
	CmdScreenTimeout    CommandType = 0x82
	CmdACOutput         CommandType = 0x86
	CmdTwelveVoltOutput CommandType = 0x87
	CmdScreenBrightness CommandType = 0x88
	CmdPowerSave        CommandType = 0x8A
	CmdLed              CommandType = 0x8B
)

func (c CommandType) String() string {
	switch c {
	case CmdACTimer:
		return "ac_timer"
	case CmdTwelveVoltTimer:
		return "twelve_volt_timer"
	case CmdRechargePower:
		return "recharge_power"
	case CmdScreenTimeout:
		return "screen_timeout"
	case CmdACOutput:
		return "ac_output"
	case CmdTwelveVoltOutput:
		return "twelve_volt_output"
	case CmdScreenBrightness:
		return "screen_brightness"
	case CmdPowerSave:
		return "power_save"
	case CmdLed:
		return "led"
	default:
		return fmt.Sprintf("unknown (0x%02x)", byte(c))
	}
}

func commandTypeFromByte(b byte) (CommandType, error) {
	switch CommandType(b) {
	case CmdACTimer, CmdTwelveVoltTimer, CmdRechargePower, CmdScreenTimeout,
		CmdACOutput, CmdTwelveVoltOutput, CmdScreenBrightness, CmdPowerSave, CmdLed:
		return CommandType(b), nil
	default:
		return 0, errors.Wrapf(ErrOutOfRange, "unknown command type 0x%02x", b)
	}
}

// CommandTypes lists every opcode, in wire order. Used by the metrics
// collector to pre-register the per-command counter labels.
func CommandTypes() []CommandType {
	return []CommandType{
		CmdACTimer, CmdTwelveVoltTimer, CmdRechargePower, CmdScreenTimeout,
		CmdACOutput, CmdTwelveVoltOutput, CmdScreenBrightness, CmdPowerSave, CmdLed,
	}
}

// extract16 reads a little-endian uint16 at index. Bounds are the
// caller's responsibility; every call site is behind a length check.
func extract16(data []byte, index int) uint16 {
	return uint16(data[index]) | uint16(data[index+1])<<8
}

// checksum is the wrapping additive checksum the device appends to
// command frames.
func checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}
