package protocol

import (
	"bytes"
	"unicode/utf8"

	"github.com/pkg/errors"

	"powerhouse-bridge/params"
)

// Packet is a decoded notification frame.
type Packet interface {
	packet()
}

// TelemetryPacket carries a full telemetry snapshot.
type TelemetryPacket struct {
	Telemetry params.Telemetry
}

// StateAckPacket carries the switch states echoed after a change.
type StateAckPacket struct {
	StateAck params.StateAck
}

// CommandAckPacket acknowledges a previously written command.
type CommandAckPacket struct {
	CommandType CommandType
}

func (*TelemetryPacket) packet()  {}
func (*StateAckPacket) packet()   {}
func (*CommandAckPacket) packet() {}

// DecodeNotification parses a raw notification frame into a typed
// packet. Malformed input returns an error wrapping ErrTooShort or
// ErrOutOfRange; it never panics.
func DecodeNotification(data []byte) (Packet, error) {
	if len(data) < headerLen {
		return nil, errors.Wrapf(ErrTooShort, "header needs %d bytes, got %d", headerLen, len(data))
	}

	switch packetKind(data[offPacketType]) {
	case packetTelemetry:
		switch telemetryKind(data[offTelemetryID]) {
		case telemetryTelemetry:
			t, err := decodeTelemetry(data)
			if err != nil {
				return nil, err
			}
			return &TelemetryPacket{Telemetry: t}, nil
		case telemetryStateAck:
			a, err := decodeStateAck(data)
			if err != nil {
				return nil, err
			}
			return &StateAckPacket{StateAck: a}, nil
		default:
			return nil, errors.Wrapf(ErrOutOfRange, "unknown telemetry type 0x%02x", data[offTelemetryID])
		}
	case packetCommandAck:
		ct, err := commandTypeFromByte(data[offTelemetryID])
		if err != nil {
			return nil, err
		}
		return &CommandAckPacket{CommandType: ct}, nil
	default:
		return nil, errors.Wrapf(ErrOutOfRange, "unknown packet type %d", data[offPacketType])
	}
}

func decodeTelemetry(data []byte) (params.Telemetry, error) {
	if len(data) < telemetryFrameLen {
		return params.Telemetry{}, errors.Wrapf(ErrTooShort, "telemetry needs %d bytes, got %d", telemetryFrameLen, len(data))
	}

	remaining := params.RemainingHoursUnknown
	if data[18] != remainingDayUnknown {
		remaining = float64(data[18])*24 + float64(data[17])/10
	}

	state, err := batteryStateFromByte(data[68])
	if err != nil {
		return params.Telemetry{}, err
	}

	serial := bytes.TrimRight(data[85:101], "\x00")
	if !utf8.Valid(serial) {
		return params.Telemetry{}, errors.Wrap(ErrOutOfRange, "device serial is not valid UTF-8")
	}

	twelveVoltTime := extract16(data, 13)

	t := params.Telemetry{
		BatteryRemainingHours: remaining,
		ACOutlet: params.Outlet{
			IsOn:  data[63] != 0,
			Watts: extract16(data, 21),
		},
		TwelveVolt: []params.Outlet{
			{IsOn: data[80] != 0, Watts: extract16(data, 33), TimeRemainingSeconds: &twelveVoltTime},
			{IsOn: data[81] != 0, Watts: extract16(data, 35), TimeRemainingSeconds: &twelveVoltTime},
		},
		USBC: []params.Outlet{
			{IsOn: data[75] != 0, Watts: extract16(data, 23)},
			{IsOn: data[76] != 0, Watts: extract16(data, 25)},
			{IsOn: data[77] != 0, Watts: extract16(data, 27)},
		},
		USBA: []params.Outlet{
			{IsOn: data[78] != 0, Watts: extract16(data, 29)},
			{IsOn: data[79] != 0, Watts: extract16(data, 31)},
		},
		TotalOutputWatts:       extract16(data, 41),
		ACInputWatts:           extract16(data, 19),
		SolarInputWatts:        extract16(data, 37),
		TotalInputWatts:        extract16(data, 39),
		InternalBattery:        params.Battery{TemperatureC: int8(data[66]), Percentage: data[70]},
		ExternalBattery:        params.Battery{TemperatureC: int8(data[67]), Percentage: data[71]},
		BatteryState:           state,
		TotalBatteryPercentage: data[72],
		DeviceSerial:           string(serial),
	}
	return t, nil
}

func decodeStateAck(data []byte) (params.StateAck, error) {
	if len(data) < stateAckFrameLen {
		return params.StateAck{}, errors.Wrapf(ErrTooShort, "state ack needs %d bytes, got %d", stateAckFrameLen, len(data))
	}
	led, err := ledStateFromByte(data[12])
	if err != nil {
		return params.StateAck{}, err
	}
	return params.StateAck{
		ACOutletOn:   data[9] != 0,
		TwelveVoltOn: data[10] != 0,
		PowerSaveOn:  data[11] != 0,
		LedState:     led,
	}, nil
}

func batteryStateFromByte(b byte) (params.BatteryState, error) {
	if b > byte(params.BatteryCharging) {
		return 0, errors.Wrapf(ErrOutOfRange, "unknown battery state %d", b)
	}
	return params.BatteryState(b), nil
}

func ledStateFromByte(b byte) (params.LedState, error) {
	if b > byte(params.LedSos) {
		return 0, errors.Wrapf(ErrOutOfRange, "unknown LED state %d", b)
	}
	return params.LedState(b), nil
}

// DecodeCommandFrame parses an encoded command frame and verifies its
// trailing additive checksum. Inbound notifications carry no integrity
// field; this is for the outbound layout, used by tests and device
// simulators to check what would go over the air.
func DecodeCommandFrame(frame []byte) (CommandType, []byte, error) {
	// header + opcode + length byte + checksum
	minLen := len(commandHeader) + 3
	if len(frame) < minLen {
		return 0, nil, errors.Wrapf(ErrTooShort, "command frame needs %d bytes, got %d", minLen, len(frame))
	}
	if !bytes.Equal(frame[:len(commandHeader)], commandHeader[:]) {
		return 0, nil, errors.Wrap(ErrOutOfRange, "bad command header")
	}
	body, sum := frame[:len(frame)-1], frame[len(frame)-1]
	if checksum(body) != sum {
		return 0, nil, errors.Wrapf(ErrChecksumMismatch, "want 0x%02x, got 0x%02x", checksum(body), sum)
	}
	ct, err := commandTypeFromByte(frame[len(commandHeader)])
	if err != nil {
		return 0, nil, err
	}
	paramBytes := frame[len(commandHeader)+2 : len(frame)-1]
	return ct, paramBytes, nil
}
