// Package dispatch validates control requests, encodes them and hands
// them to the device worker, recording accepted commands in the state
// store.
package dispatch

import (
	"github.com/juju/loggo"
	"github.com/pkg/errors"

	"powerhouse-bridge/device"
	"powerhouse-bridge/params"
	"powerhouse-bridge/protocol"
	"powerhouse-bridge/state"
)

var log = loggo.GetLogger("phb.dispatch")

var (
	// ErrOutOfDomain means the requested value is outside the
	// parameter's accepted range. Nothing was sent to the device.
	ErrOutOfDomain = errors.New("value out of range")
	// ErrNotConnected means there is no active device session.
	ErrNotConnected = errors.New("device not connected")
	// ErrTransmitFailed means the write to the device failed after
	// validation passed.
	ErrTransmitFailed = errors.New("transmit failed")
)

// Transmitter is the outbound half of the device worker.
type Transmitter interface {
	Transmit(frame []byte) error
}

func NewDispatcher(transmitter Transmitter, store *state.Store) *Dispatcher {
	return &Dispatcher{
		transmitter: transmitter,
		store:       store,
	}
}

// Dispatcher is the single entry point for device commands. Each setter
// validates first and mutates the recorded set state only after the
// frame was accepted for transmission.
type Dispatcher struct {
	transmitter Transmitter
	store       *state.Store
}

func (d *Dispatcher) send(cmd protocol.Command, apply func(*params.SetState)) error {
	frame := protocol.Encode(cmd)
	if err := d.transmitter.Transmit(frame); err != nil {
		log.Warningf("sending %s: %s", cmd.Type(), err)
		if errors.Is(err, device.ErrNotConnected) {
			return ErrNotConnected
		}
		return errors.Wrap(ErrTransmitFailed, err.Error())
	}
	log.Debugf("sent %s", cmd.Type())
	d.store.ApplyCommandResult(cmd.Type().String(), apply)
	return nil
}

func (d *Dispatcher) SetACOutput(on bool) error {
	return d.send(protocol.NewACOutput(on), func(s *params.SetState) {
		s.ACOutput = &on
	})
}

func (d *Dispatcher) SetTwelveVoltOutput(on bool) error {
	return d.send(protocol.NewTwelveVoltOutput(on), func(s *params.SetState) {
		s.TwelveVoltOutput = &on
	})
}

func (d *Dispatcher) SetPowerSave(on bool) error {
	return d.send(protocol.NewPowerSave(on), func(s *params.SetState) {
		s.PowerSave = &on
	})
}

// SetScreenBrightness sets the display brightness, 0-3.
func (d *Dispatcher) SetScreenBrightness(level int) error {
	if level < 0 || level > 3 {
		return errors.Wrapf(ErrOutOfDomain, "brightness must be 0-3, got %d", level)
	}
	cmd, err := protocol.NewScreenBrightness(uint8(level))
	if err != nil {
		return errors.Wrap(ErrOutOfDomain, err.Error())
	}
	v := uint8(level)
	return d.send(cmd, func(s *params.SetState) {
		s.ScreenBrightness = &v
	})
}

// SetLed sets the light bar level, 0-4.
func (d *Dispatcher) SetLed(level int) error {
	if level < 0 || level > 4 {
		return errors.Wrapf(ErrOutOfDomain, "LED level must be 0-4, got %d", level)
	}
	cmd, err := protocol.NewLed(uint8(level))
	if err != nil {
		return errors.Wrap(ErrOutOfDomain, err.Error())
	}
	v := uint8(level)
	return d.send(cmd, func(s *params.SetState) {
		s.LedLevel = &v
	})
}

// SetRechargePower sets the AC recharge rate in watts, 200-1440.
func (d *Dispatcher) SetRechargePower(watts int) error {
	if watts < 200 || watts > 1440 {
		return errors.Wrapf(ErrOutOfDomain, "recharge power must be 200-1440, got %d", watts)
	}
	cmd, err := protocol.NewRechargePower(uint16(watts))
	if err != nil {
		return errors.Wrap(ErrOutOfDomain, err.Error())
	}
	v := uint16(watts)
	return d.send(cmd, func(s *params.SetState) {
		s.RechargePower = &v
	})
}

// SetScreenTimeout sets the display auto-off timeout in seconds. Zero
// disables the timeout.
func (d *Dispatcher) SetScreenTimeout(seconds int) error {
	if seconds < 0 || seconds > 0xFFFF {
		return errors.Wrapf(ErrOutOfDomain, "screen timeout must be 0-65535, got %d", seconds)
	}
	v := uint16(seconds)
	return d.send(protocol.NewScreenTimeout(v), func(s *params.SetState) {
		s.ScreenTimeout = &v
	})
}

// SetACTimer sets the AC output auto-off timer in seconds. Zero
// disables the timer.
func (d *Dispatcher) SetACTimer(seconds int) error {
	if seconds < 0 || seconds > 0xFFFF {
		return errors.Wrapf(ErrOutOfDomain, "AC timer must be 0-65535, got %d", seconds)
	}
	v := uint16(seconds)
	return d.send(protocol.NewACTimer(v), func(s *params.SetState) {
		s.ACTimer = &v
	})
}

// SetTwelveVoltTimer sets the 12V output auto-off timer in seconds.
// Zero disables the timer.
func (d *Dispatcher) SetTwelveVoltTimer(seconds int) error {
	if seconds < 0 || seconds > 0xFFFF {
		return errors.Wrapf(ErrOutOfDomain, "12V timer must be 0-65535, got %d", seconds)
	}
	v := uint16(seconds)
	return d.send(protocol.NewTwelveVoltTimer(v), func(s *params.SetState) {
		s.TwelveVoltTimer = &v
	})
}
