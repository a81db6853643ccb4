package protocol

import "github.com/pkg/errors"

// Command is a validated control request ready to be encoded. Concrete
// commands can only be built through the constructors below, so a
// Command never carries an out-of-domain value.
type Command interface {
	Type() CommandType
	// frameLength is the value of the frame's length byte; part of the
	// pinned layout, not derived from the payload.
	frameLength() byte
	parameters() []byte
}

// Encode serializes a command into the device's write-characteristic
// frame: header, opcode, length byte, parameters, additive checksum.
// It is pure and deterministic over the Command domain.
func Encode(cmd Command) []byte {
	out := make([]byte, 0, 16)
	out = append(out, commandHeader[:]...)
	out = append(out, byte(cmd.Type()), cmd.frameLength())
	out = append(out, cmd.parameters()...)
	out = append(out, checksum(out))
	return out
}

func boolByte(on bool) byte {
	if on {
		return 1
	}
	return 0
}

// switchCommand covers the three on/off parameters, which share one
// frame shape.
type switchCommand struct {
	commandType CommandType
	on          bool
}

func (c switchCommand) Type() CommandType { return c.commandType }
func (c switchCommand) frameLength() byte { return 11 }
func (c switchCommand) parameters() []byte {
	return []byte{0x00, boolByte(c.on)}
}

// NewACOutput toggles the AC inverter output.
func NewACOutput(on bool) Command {
	return switchCommand{commandType: CmdACOutput, on: on}
}

// NewTwelveVoltOutput toggles the 12V car socket outputs.
func NewTwelveVoltOutput(on bool) Command {
	return switchCommand{commandType: CmdTwelveVoltOutput, on: on}
}

// NewPowerSave toggles power save mode.
func NewPowerSave(on bool) Command {
	return switchCommand{commandType: CmdPowerSave, on: on}
}

// levelCommand covers the single-byte leveled parameters.
type levelCommand struct {
	commandType CommandType
	level       uint8
}

func (c levelCommand) Type() CommandType { return c.commandType }
func (c levelCommand) frameLength() byte { return 11 }
func (c levelCommand) parameters() []byte {
	return []byte{0x00, c.level}
}

// NewScreenBrightness sets the display brightness, 0-3.
func NewScreenBrightness(level uint8) (Command, error) {
	if level > 3 {
		return nil, errors.Wrapf(ErrOutOfRange, "brightness must be 0-3, got %d", level)
	}
	return levelCommand{commandType: CmdScreenBrightness, level: level}, nil
}

// NewLed sets the light bar level, 0-4. Level 4 is the SOS pattern.
func NewLed(level uint8) (Command, error) {
	if level > 4 {
		return nil, errors.Wrapf(ErrOutOfRange, "LED level must be 0-4, got %d", level)
	}
	return levelCommand{commandType: CmdLed, level: level}, nil
}

// wordCommand covers the two-byte little-endian parameters.
type wordCommand struct {
	commandType CommandType
	value       uint16
}

func (c wordCommand) Type() CommandType { return c.commandType }
func (c wordCommand) frameLength() byte { return 12 }
func (c wordCommand) parameters() []byte {
	return []byte{0x00, byte(c.value), byte(c.value >> 8)}
}

// NewRechargePower sets the AC recharge rate in watts, 200-1440.
func NewRechargePower(watts uint16) (Command, error) {
	if watts < 200 || watts > 1440 {
		return nil, errors.Wrapf(ErrOutOfRange, "recharge power must be 200-1440, got %d", watts)
	}
	return wordCommand{commandType: CmdRechargePower, value: watts}, nil
}

// NewScreenTimeout sets the display auto-off timeout in seconds.
// Zero disables the timeout.
func NewScreenTimeout(seconds uint16) Command {
	return wordCommand{commandType: CmdScreenTimeout, value: seconds}
}

// timerCommand covers the output auto-off timers, which pad the value
// with two trailing zero bytes.
type timerCommand struct {
	commandType CommandType
	seconds     uint16
}

func (c timerCommand) Type() CommandType { return c.commandType }
func (c timerCommand) frameLength() byte { return 14 }
func (c timerCommand) parameters() []byte {
	return []byte{0x00, byte(c.seconds), byte(c.seconds >> 8), 0x00, 0x00}
}

// NewACTimer sets the AC output auto-off timer in seconds. Zero
// disables the timer.
func NewACTimer(seconds uint16) Command {
	return timerCommand{commandType: CmdACTimer, seconds: seconds}
}

// NewTwelveVoltTimer sets the 12V output auto-off timer in seconds.
// Zero disables the timer.
func NewTwelveVoltTimer(seconds uint16) Command {
	return timerCommand{commandType: CmdTwelveVoltTimer, seconds: seconds}
}
