// Package metrics exposes the cached device state as Prometheus
// metrics. The collector reads store snapshots at scrape time, so a
// scrape never touches the BLE session.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"powerhouse-bridge/params"
	"powerhouse-bridge/protocol"
	"powerhouse-bridge/state"
)

// Collector implements prometheus.Collector over the state store.
// Telemetry metrics are absent from the scrape until the first frame
// has been decoded.
type Collector struct {
	store *state.Store

	batteryPercentage           *prometheus.Desc
	batteryPercentageIndividual *prometheus.Desc
	batteryRemainingHours       *prometheus.Desc
	batteryTemperature          *prometheus.Desc
	batteryState                *prometheus.Desc

	totalOutputWatts *prometheus.Desc
	totalInputWatts  *prometheus.Desc
	acInputWatts     *prometheus.Desc
	solarInputWatts  *prometheus.Desc

	acOutletOn    *prometheus.Desc
	acOutletWatts *prometheus.Desc

	twelveVoltOn           *prometheus.Desc
	twelveVoltWatts        *prometheus.Desc
	twelveVoltTimerSeconds *prometheus.Desc

	usbCOn    *prometheus.Desc
	usbCWatts *prometheus.Desc
	usbAOn    *prometheus.Desc
	usbAWatts *prometheus.Desc

	connected     *prometheus.Desc
	commandsTotal *prometheus.Desc
}

func NewCollector(store *state.Store) *Collector {
	return &Collector{
		store: store,
		batteryPercentage: prometheus.NewDesc(
			"anker_battery_percentage",
			"Total battery percentage",
			nil,
			nil,
		),
		batteryPercentageIndividual: prometheus.NewDesc(
			"anker_battery_percentage_individual",
			"Individual battery percentage",
			[]string{"battery"},
			nil,
		),
		batteryRemainingHours: prometheus.NewDesc(
			"anker_battery_remaining_hours",
			"Estimated battery remaining time in hours",
			nil,
			nil,
		),
		batteryTemperature: prometheus.NewDesc(
			"anker_battery_temperature",
			"Battery temperature in celsius",
			[]string{"battery"},
			nil,
		),
		batteryState: prometheus.NewDesc(
			"anker_battery_state",
			"Battery state (0=idle, 1=discharging, 2=charging)",
			nil,
			nil,
		),
		totalOutputWatts: prometheus.NewDesc(
			"anker_total_output_watts",
			"Total output power in watts",
			nil,
			nil,
		),
		totalInputWatts: prometheus.NewDesc(
			"anker_total_input_watts",
			"Total input power in watts",
			nil,
			nil,
		),
		acInputWatts: prometheus.NewDesc(
			"anker_ac_input_watts",
			"AC input power in watts",
			nil,
			nil,
		),
		solarInputWatts: prometheus.NewDesc(
			"anker_solar_input_watts",
			"Solar input power in watts",
			nil,
			nil,
		),
		acOutletOn: prometheus.NewDesc(
			"anker_ac_outlet_on",
			"AC outlet status (0=off, 1=on)",
			nil,
			nil,
		),
		acOutletWatts: prometheus.NewDesc(
			"anker_ac_outlet_watts",
			"AC outlet power in watts",
			nil,
			nil,
		),
		twelveVoltOn: prometheus.NewDesc(
			"anker_twelve_volt_on",
			"12V outlet status (0=off, 1=on)",
			[]string{"port"},
			nil,
		),
		twelveVoltWatts: prometheus.NewDesc(
			"anker_twelve_volt_watts",
			"12V outlet power in watts",
			[]string{"port"},
			nil,
		),
		twelveVoltTimerSeconds: prometheus.NewDesc(
			"anker_twelve_volt_timer_seconds",
			"12V outlet timer remaining in seconds",
			nil,
			nil,
		),
		usbCOn: prometheus.NewDesc(
			"anker_usb_c_on",
			"USB-C port status (0=off, 1=on)",
			[]string{"port"},
			nil,
		),
		usbCWatts: prometheus.NewDesc(
			"anker_usb_c_watts",
			"USB-C port power in watts",
			[]string{"port"},
			nil,
		),
		usbAOn: prometheus.NewDesc(
			"anker_usb_a_on",
			"USB-A port status (0=off, 1=on)",
			[]string{"port"},
			nil,
		),
		usbAWatts: prometheus.NewDesc(
			"anker_usb_a_watts",
			"USB-A port power in watts",
			[]string{"port"},
			nil,
		),
		connected: prometheus.NewDesc(
			"anker_connected",
			"BLE connection status (0=disconnected, 1=connected)",
			nil,
			nil,
		),
		commandsTotal: prometheus.NewDesc(
			"anker_commands_total",
			"Total commands sent by type",
			[]string{"command"},
			nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.batteryPercentage
	ch <- c.batteryPercentageIndividual
	ch <- c.batteryRemainingHours
	ch <- c.batteryTemperature
	ch <- c.batteryState
	ch <- c.totalOutputWatts
	ch <- c.totalInputWatts
	ch <- c.acInputWatts
	ch <- c.solarInputWatts
	ch <- c.acOutletOn
	ch <- c.acOutletWatts
	ch <- c.twelveVoltOn
	ch <- c.twelveVoltWatts
	ch <- c.twelveVoltTimerSeconds
	ch <- c.usbCOn
	ch <- c.usbCWatts
	ch <- c.usbAOn
	ch <- c.usbAWatts
	ch <- c.connected
	ch <- c.commandsTotal
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	status := c.store.Status()
	connected := 0.0
	if status.State == params.StateConnected {
		connected = 1.0
	}
	ch <- prometheus.MustNewConstMetric(c.connected, prometheus.GaugeValue, connected)

	counts := c.store.CommandCounts()
	for _, commandType := range protocol.CommandTypes() {
		command := commandType.String()
		ch <- prometheus.MustNewConstMetric(c.commandsTotal, prometheus.CounterValue, float64(counts[command]), command)
	}

	telemetry, ok := c.store.Telemetry()
	if !ok {
		return
	}
	c.collectTelemetry(telemetry, ch)
}

func (c *Collector) collectTelemetry(t params.Telemetry, ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.batteryPercentage, prometheus.GaugeValue, float64(t.TotalBatteryPercentage))
	ch <- prometheus.MustNewConstMetric(c.batteryPercentageIndividual, prometheus.GaugeValue, float64(t.InternalBattery.Percentage), "internal")
	ch <- prometheus.MustNewConstMetric(c.batteryPercentageIndividual, prometheus.GaugeValue, float64(t.ExternalBattery.Percentage), "external")
	ch <- prometheus.MustNewConstMetric(c.batteryRemainingHours, prometheus.GaugeValue, t.BatteryRemainingHours)
	ch <- prometheus.MustNewConstMetric(c.batteryTemperature, prometheus.GaugeValue, float64(t.InternalBattery.TemperatureC), "internal")
	ch <- prometheus.MustNewConstMetric(c.batteryTemperature, prometheus.GaugeValue, float64(t.ExternalBattery.TemperatureC), "external")
	ch <- prometheus.MustNewConstMetric(c.batteryState, prometheus.GaugeValue, float64(t.BatteryState))

	ch <- prometheus.MustNewConstMetric(c.totalOutputWatts, prometheus.GaugeValue, float64(t.TotalOutputWatts))
	ch <- prometheus.MustNewConstMetric(c.totalInputWatts, prometheus.GaugeValue, float64(t.TotalInputWatts))
	ch <- prometheus.MustNewConstMetric(c.acInputWatts, prometheus.GaugeValue, float64(t.ACInputWatts))
	ch <- prometheus.MustNewConstMetric(c.solarInputWatts, prometheus.GaugeValue, float64(t.SolarInputWatts))

	ch <- prometheus.MustNewConstMetric(c.acOutletOn, prometheus.GaugeValue, boolValue(t.ACOutlet.IsOn))
	ch <- prometheus.MustNewConstMetric(c.acOutletWatts, prometheus.GaugeValue, float64(t.ACOutlet.Watts))

	for i, outlet := range t.TwelveVolt {
		port := strconv.Itoa(i)
		ch <- prometheus.MustNewConstMetric(c.twelveVoltOn, prometheus.GaugeValue, boolValue(outlet.IsOn), port)
		ch <- prometheus.MustNewConstMetric(c.twelveVoltWatts, prometheus.GaugeValue, float64(outlet.Watts), port)
	}

	// The 12V timer is shared between both ports.
	if len(t.TwelveVolt) > 0 && t.TwelveVolt[0].TimeRemainingSeconds != nil {
		ch <- prometheus.MustNewConstMetric(c.twelveVoltTimerSeconds, prometheus.GaugeValue, float64(*t.TwelveVolt[0].TimeRemainingSeconds))
	}

	for i, outlet := range t.USBC {
		port := strconv.Itoa(i)
		ch <- prometheus.MustNewConstMetric(c.usbCOn, prometheus.GaugeValue, boolValue(outlet.IsOn), port)
		ch <- prometheus.MustNewConstMetric(c.usbCWatts, prometheus.GaugeValue, float64(outlet.Watts), port)
	}

	for i, outlet := range t.USBA {
		port := strconv.Itoa(i)
		ch <- prometheus.MustNewConstMetric(c.usbAOn, prometheus.GaugeValue, boolValue(outlet.IsOn), port)
		ch <- prometheus.MustNewConstMetric(c.usbAWatts, prometheus.GaugeValue, float64(outlet.Watts), port)
	}
}

func boolValue(on bool) float64 {
	if on {
		return 1.0
	}
	return 0.0
}
