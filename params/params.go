package params

import "fmt"

// RemainingHoursUnknown marks a battery remaining-time estimate the
// device could not compute. It is distinct from zero, which is a valid
// reading.
const RemainingHoursUnknown float64 = -1

// BatteryState is the charge/discharge state reported by the station.
type BatteryState uint8

const (
	BatteryIdle BatteryState = iota
	BatteryDischarging
	BatteryCharging
)

func (b BatteryState) String() string {
	switch b {
	case BatteryIdle:
		return "idle"
	case BatteryDischarging:
		return "discharging"
	case BatteryCharging:
		return "charging"
	default:
		return fmt.Sprintf("unknown (%d)", uint8(b))
	}
}

// MarshalJSON renders the state as its lowercase name.
func (b BatteryState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + b.String() + `"`), nil
}

// LedState is the light bar level, where Sos is the blinking SOS pattern.
type LedState uint8

const (
	LedOff LedState = iota
	LedLow
	LedMid
	LedHigh
	LedSos
)

func (l LedState) String() string {
	switch l {
	case LedOff:
		return "off"
	case LedLow:
		return "low"
	case LedMid:
		return "mid"
	case LedHigh:
		return "high"
	case LedSos:
		return "sos"
	default:
		return fmt.Sprintf("unknown (%d)", uint8(l))
	}
}

func (l LedState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

// Outlet is the status of a single output port.
type Outlet struct {
	IsOn  bool   `json:"is_on"`
	Watts uint16 `json:"watts"`
	// TimeRemainingSeconds is only reported for the 12V ports.
	TimeRemainingSeconds *uint16 `json:"time_remaining_seconds,omitempty"`
}

// Battery is one battery bank. Temperature is in degrees celsius.
type Battery struct {
	TemperatureC int8  `json:"temperature"`
	Percentage   uint8 `json:"percentage"`
}

// Telemetry is a full decoded telemetry frame. Values are replaced
// wholesale on every decode; a Telemetry is never partially updated.
type Telemetry struct {
	BatteryRemainingHours  float64      `json:"battery_remaining_hours"`
	ACOutlet               Outlet       `json:"ac_outlet"`
	TwelveVolt             []Outlet     `json:"twelve_volt"`
	USBC                   []Outlet     `json:"usb_c"`
	USBA                   []Outlet     `json:"usb_a"`
	TotalOutputWatts       uint16       `json:"total_output_watts"`
	ACInputWatts           uint16       `json:"ac_input_watts"`
	SolarInputWatts        uint16       `json:"solar_input_watts"`
	TotalInputWatts        uint16       `json:"total_input_watts"`
	InternalBattery        Battery      `json:"internal_battery"`
	ExternalBattery        Battery      `json:"external_battery"`
	BatteryState           BatteryState `json:"battery_state"`
	TotalBatteryPercentage uint8        `json:"total_battery_percentage"`
	DeviceSerial           string       `json:"device_serial"`
}

// Clone returns a deep copy, so cached snapshots can be handed out
// without sharing slices with the writer.
func (t Telemetry) Clone() Telemetry {
	out := t
	out.TwelveVolt = cloneOutlets(t.TwelveVolt)
	out.USBC = cloneOutlets(t.USBC)
	out.USBA = cloneOutlets(t.USBA)
	return out
}

func cloneOutlets(in []Outlet) []Outlet {
	if in == nil {
		return nil
	}
	out := make([]Outlet, len(in))
	for i, o := range in {
		out[i] = o
		if o.TimeRemainingSeconds != nil {
			v := *o.TimeRemainingSeconds
			out[i].TimeRemainingSeconds = &v
		}
	}
	return out
}

// StateAck reflects the switch states the device reports after a
// state change.
type StateAck struct {
	ACOutletOn   bool     `json:"ac_outlet_on"`
	TwelveVoltOn bool     `json:"twelve_volt_on"`
	PowerSaveOn  bool     `json:"power_save_on"`
	LedState     LedState `json:"led_state"`
}

// SetState tracks the last value sent for each settable parameter.
// The protocol has no read-back for these, so this is recorded intent,
// not device-confirmed state. A field is nil until the first accepted
// command of that kind.
type SetState struct {
	ACOutput         *bool   `json:"ac_output,omitempty"`
	TwelveVoltOutput *bool   `json:"twelve_volt_output,omitempty"`
	PowerSave        *bool   `json:"power_save,omitempty"`
	LedLevel         *uint8  `json:"led_level,omitempty"`
	ScreenBrightness *uint8  `json:"screen_brightness,omitempty"`
	RechargePower    *uint16 `json:"recharge_power,omitempty"`
	ScreenTimeout    *uint16 `json:"screen_timeout,omitempty"`
	ACTimer          *uint16 `json:"ac_timer,omitempty"`
	TwelveVoltTimer  *uint16 `json:"twelve_volt_timer,omitempty"`
}

// Clone returns a deep copy of the set state.
func (s SetState) Clone() SetState {
	return SetState{
		ACOutput:         cloneBool(s.ACOutput),
		TwelveVoltOutput: cloneBool(s.TwelveVoltOutput),
		PowerSave:        cloneBool(s.PowerSave),
		LedLevel:         cloneU8(s.LedLevel),
		ScreenBrightness: cloneU8(s.ScreenBrightness),
		RechargePower:    cloneU16(s.RechargePower),
		ScreenTimeout:    cloneU16(s.ScreenTimeout),
		ACTimer:          cloneU16(s.ACTimer),
		TwelveVoltTimer:  cloneU16(s.TwelveVoltTimer),
	}
}

func cloneBool(p *bool) *bool {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneU8(p *uint8) *uint8 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneU16(p *uint16) *uint16 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ConnectionState is the BLE session lifecycle state.
type ConnectionState uint8

const (
	StateDisconnected ConnectionState = iota
	StateScanning
	StateConnecting
	StateConnected
)

func (c ConnectionState) String() string {
	switch c {
	case StateDisconnected:
		return "disconnected"
	case StateScanning:
		return "scanning"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("unknown (%d)", uint8(c))
	}
}

func (c ConnectionState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// ConnectionStatus is the session state plus reconnect bookkeeping.
// Attempts counts reconnect cycles since the last successful
// connection and resets to zero on reaching StateConnected.
type ConnectionStatus struct {
	State     ConnectionState `json:"state"`
	LastError string          `json:"last_error,omitempty"`
	Attempts  uint64          `json:"reconnect_attempts"`
}
