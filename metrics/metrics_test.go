package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"powerhouse-bridge/params"
	"powerhouse-bridge/state"
)

func sampleTelemetry() params.Telemetry {
	timer := uint16(3600)
	return params.Telemetry{
		BatteryRemainingHours: 12.5,
		ACOutlet:              params.Outlet{IsOn: true, Watts: 150},
		TwelveVolt: []params.Outlet{
			{IsOn: true, Watts: 24, TimeRemainingSeconds: &timer},
			{IsOn: false, Watts: 0, TimeRemainingSeconds: &timer},
		},
		USBC:                   []params.Outlet{{IsOn: true, Watts: 45}, {}, {}},
		USBA:                   []params.Outlet{{}, {IsOn: true, Watts: 7}},
		TotalOutputWatts:       226,
		ACInputWatts:           300,
		SolarInputWatts:        120,
		TotalInputWatts:        420,
		InternalBattery:        params.Battery{TemperatureC: 25, Percentage: 60},
		ExternalBattery:        params.Battery{TemperatureC: -10, Percentage: 48},
		BatteryState:           params.BatteryCharging,
		TotalBatteryPercentage: 54,
		DeviceSerial:           "AP767SN000123456",
	}
}

func TestCollectorRegisters(t *testing.T) {
	registry := prometheus.NewPedanticRegistry()
	require.NoError(t, registry.Register(NewCollector(state.NewStore())))
	_, err := registry.Gather()
	assert.NoError(t, err)
}

func TestCollectorBeforeFirstTelemetry(t *testing.T) {
	store := state.NewStore()
	collector := NewCollector(store)

	assert.Equal(t, 0, testutil.CollectAndCount(collector, "anker_battery_percentage"))
	// Connection status is always present.
	assert.Equal(t, 1, testutil.CollectAndCount(collector, "anker_connected"))
	assert.Equal(t, 0.0, testutil.ToFloat64(collectOnly(collector, "anker_connected")))
}

func TestCollectorTelemetryValues(t *testing.T) {
	store := state.NewStore()
	store.ApplyTelemetry(sampleTelemetry())
	store.SetConnectionState(params.StateConnected, nil)
	collector := NewCollector(store)

	expected := `
# HELP anker_battery_percentage Total battery percentage
# TYPE anker_battery_percentage gauge
anker_battery_percentage 54
# HELP anker_battery_temperature Battery temperature in celsius
# TYPE anker_battery_temperature gauge
anker_battery_temperature{battery="external"} -10
anker_battery_temperature{battery="internal"} 25
# HELP anker_connected BLE connection status (0=disconnected, 1=connected)
# TYPE anker_connected gauge
anker_connected 1
# HELP anker_twelve_volt_timer_seconds 12V outlet timer remaining in seconds
# TYPE anker_twelve_volt_timer_seconds gauge
anker_twelve_volt_timer_seconds 3600
`
	err := testutil.CollectAndCompare(collector, strings.NewReader(expected),
		"anker_battery_percentage",
		"anker_battery_temperature",
		"anker_connected",
		"anker_twelve_volt_timer_seconds",
	)
	assert.NoError(t, err)
}

func TestCollectorCommandCounts(t *testing.T) {
	store := state.NewStore()
	store.ApplyCommandResult("ac_output", nil)
	store.ApplyCommandResult("ac_output", nil)
	store.ApplyCommandResult("led", nil)
	collector := NewCollector(store)

	expected := `
# HELP anker_commands_total Total commands sent by type
# TYPE anker_commands_total counter
anker_commands_total{command="ac_output"} 2
anker_commands_total{command="ac_timer"} 0
anker_commands_total{command="led"} 1
anker_commands_total{command="power_save"} 0
anker_commands_total{command="recharge_power"} 0
anker_commands_total{command="screen_brightness"} 0
anker_commands_total{command="screen_timeout"} 0
anker_commands_total{command="twelve_volt_output"} 0
anker_commands_total{command="twelve_volt_timer"} 0
`
	err := testutil.CollectAndCompare(collector, strings.NewReader(expected), "anker_commands_total")
	assert.NoError(t, err)
}

// collectOnly gathers a single metric family into a fresh gauge-style
// collector so ToFloat64 can read it.
func collectOnly(c prometheus.Collector, name string) prometheus.Collector {
	return collectorFunc(func(ch chan<- prometheus.Metric) {
		inner := make(chan prometheus.Metric, 64)
		go func() {
			c.Collect(inner)
			close(inner)
		}()
		for m := range inner {
			if strings.HasPrefix(m.Desc().String(), `Desc{fqName: "`+name+`"`) {
				ch <- m
			}
		}
	})
}

type collectorFunc func(ch chan<- prometheus.Metric)

func (f collectorFunc) Describe(ch chan<- *prometheus.Desc) {}

func (f collectorFunc) Collect(ch chan<- prometheus.Metric) { f(ch) }
