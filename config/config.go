package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
)

type LogLevel string

const (
	ClientID           = "powerhouse-bridge"
	Trace     LogLevel = "trace"
	Debug     LogLevel = "debug"
	Info      LogLevel = "info"
	Warning   LogLevel = "warning"

	// DefaultDeviceName is the name the station advertises over BLE.
	DefaultDeviceName = "767_PowerHouse"
)

// NewConfig loads and validates the config file. An empty path yields
// a config with defaults only.
func NewConfig(cfgFile string) (*Config, error) {
	var config Config
	if cfgFile != "" {
		if _, err := toml.DecodeFile(cfgFile, &config); err != nil {
			return nil, errors.Wrap(err, "decoding toml")
		}
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating config")
	}
	return &config, nil
}

type Config struct {
	// ListenAddress is the HTTP bind address.
	ListenAddress string `toml:"listen_address"`
	// StaticDir is served at / when set (web UI assets).
	StaticDir string `toml:"static_dir"`
	// LogFile is the path to the log on disk. Empty logs to stdout.
	LogFile string `toml:"log_file"`
	// LogLevel sets the logging output to desired level.
	LogLevel LogLevel `toml:"log_level"`

	// Device holds the BLE session settings.
	Device Device `toml:"device"`

	// MQTT holds the optional telemetry publisher settings.
	MQTT MQTT `toml:"mqtt"`
}

func (c *Config) Validate() error {
	if c.ListenAddress == "" {
		c.ListenAddress = ":3000"
	}
	if c.LogLevel == "" {
		c.LogLevel = Info
	}
	if err := c.Device.Validate(); err != nil {
		return errors.Wrap(err, "validating device settings")
	}
	if err := c.MQTT.Validate(); err != nil {
		return errors.Wrap(err, "validating mqtt settings")
	}
	return nil
}

type Device struct {
	// Name is the advertised device name to scan for.
	Name string `toml:"name"`
	// Adapter is the BlueZ adapter checked at startup.
	Adapter string `toml:"adapter"`
	// ScanTimeout bounds one scan window, in seconds. A scan that
	// finds nothing restarts after the reconnect delay.
	ScanTimeout uint `toml:"scan_timeout"`
	// ConnectTimeout bounds connect plus characteristic discovery,
	// in seconds.
	ConnectTimeout uint `toml:"connect_timeout"`
	// WriteTimeout bounds a single characteristic write, in seconds.
	WriteTimeout uint `toml:"write_timeout"`
	// ReconnectDelay is the initial backoff in seconds. It doubles on
	// every failed cycle up to ReconnectMaxDelay.
	ReconnectDelay uint `toml:"reconnect_delay"`
	// ReconnectMaxDelay caps the backoff, in seconds.
	ReconnectMaxDelay uint `toml:"reconnect_max_delay"`
}

func (d *Device) Validate() error {
	if d.Name == "" {
		d.Name = DefaultDeviceName
	}
	if d.Adapter == "" {
		d.Adapter = "hci0"
	}
	if d.ScanTimeout == 0 {
		d.ScanTimeout = 30
	}
	if d.ConnectTimeout == 0 {
		d.ConnectTimeout = 20
	}
	if d.WriteTimeout == 0 {
		d.WriteTimeout = 5
	}
	if d.ReconnectDelay == 0 {
		d.ReconnectDelay = 1
	}
	if d.ReconnectMaxDelay == 0 {
		d.ReconnectMaxDelay = 60
	}
	if d.ReconnectMaxDelay < d.ReconnectDelay {
		return fmt.Errorf("reconnect_max_delay (%d) must not be lower than reconnect_delay (%d)", d.ReconnectMaxDelay, d.ReconnectDelay)
	}
	return nil
}

type MQTT struct {
	// Enabled turns on the telemetry publisher.
	Enabled  bool   `toml:"enabled"`
	Broker   string `toml:"broker"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	// TopicPrefix prefixes the published topics
	// (<prefix>/telemetry, <prefix>/connection).
	TopicPrefix string `toml:"topic_prefix"`
}

func (m *MQTT) BrokerURI() (string, error) {
	if err := m.Validate(); err != nil {
		return "", errors.Wrap(err, "fetching broker URI")
	}
	return fmt.Sprintf("tcp://%s:%d", m.Broker, m.Port), nil
}

func (m *MQTT) ClientOptions() (*mqtt.ClientOptions, error) {
	brokerURI, err := m.BrokerURI()
	if err != nil {
		return nil, errors.Wrap(err, "creating mqtt options")
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURI)
	if m.Username != "" {
		opts.SetUsername(m.Username)
	}
	if m.Password != "" {
		opts.SetPassword(m.Password)
	}
	opts.SetClientID(ClientID)
	return opts, nil
}

func (m *MQTT) Validate() error {
	if !m.Enabled {
		return nil
	}
	if m.Broker == "" {
		return fmt.Errorf("broker cannot be empty when mqtt is enabled")
	}
	if m.Port == 0 {
		m.Port = 1883
	}
	if m.TopicPrefix == "" {
		m.TopicPrefix = "powerhouse"
	}
	return nil
}
