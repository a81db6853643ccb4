// Package publisher pushes decoded telemetry to an MQTT broker. The
// publisher is optional; when disabled the rest of the bridge is
// unaffected.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/loggo"
	"github.com/pkg/errors"

	"powerhouse-bridge/config"
	"powerhouse-bridge/params"
)

var log = loggo.GetLogger("phb.publisher")

func NewWorker(ctx context.Context, cfg *config.Config, updates <-chan params.Telemetry) (*Worker, error) {
	if _, err := cfg.MQTT.BrokerURI(); err != nil {
		return nil, errors.Wrap(err, "validating MQTT settings")
	}
	return &Worker{
		ctx:              ctx,
		closed:           make(chan struct{}),
		quit:             make(chan struct{}),
		cfg:              cfg.MQTT,
		updates:          updates,
		mqttDisconnected: make(chan struct{}),
	}, nil
}

type Worker struct {
	ctx    context.Context
	closed chan struct{}
	quit   chan struct{}

	cfg     config.MQTT
	updates <-chan params.Telemetry

	client           mqtt.Client
	mqttDisconnected chan struct{}
}

func (w *Worker) mqttOnConnect(client mqtt.Client) {
	log.Infof("Connected to %s", w.cfg.Broker)
}

func (w *Worker) mqttConnectionLostHandler(client mqtt.Client, err error) {
	log.Infof("Connection to %s has been lost: %q", w.cfg.Broker, err)
	select {
	case <-w.mqttDisconnected:
	default:
		close(w.mqttDisconnected)
	}
}

func (w *Worker) connectMQTT() (mqtt.Client, error) {
	opts, err := w.cfg.ClientOptions()
	if err != nil {
		return nil, errors.Wrap(err, "fetching client options")
	}
	opts.OnConnect = w.mqttOnConnect
	opts.OnConnectionLost = w.mqttConnectionLostHandler
	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if token.Error() != nil {
		return nil, token.Error()
	}
	return client, nil
}

func (w *Worker) publishTelemetry(telemetry params.Telemetry) error {
	if w.client == nil || !w.client.IsConnected() {
		return errors.New("not connected to broker")
	}
	payload, err := json.Marshal(telemetry)
	if err != nil {
		return errors.Wrap(err, "encoding telemetry")
	}
	topic := fmt.Sprintf("%s/telemetry", w.cfg.TopicPrefix)
	token := w.client.Publish(topic, 0, false, payload)
	token.Wait()
	return errors.Wrap(token.Error(), "publishing telemetry")
}

func (w *Worker) loop() {
	defer func() {
		if w.client != nil {
			w.client.Disconnect(1000)
		}
		close(w.closed)
	}()
	for {
		if w.client == nil {
			client, err := w.connectMQTT()
			if err != nil {
				log.Errorf("failed to connect to mqtt: %q", err)
				select {
				case <-w.ctx.Done():
					return
				case <-w.quit:
					return
				case <-time.After(5 * time.Second):
				}
				continue
			}
			w.client = client
			w.mqttDisconnected = make(chan struct{})
		}

		select {
		case <-w.ctx.Done():
			return
		case <-w.quit:
			return
		case <-w.mqttDisconnected:
			w.client = nil
		case telemetry := <-w.updates:
			if err := w.publishTelemetry(telemetry); err != nil {
				log.Errorf("failed to publish telemetry: %q", err)
			}
		}
	}
}

func (w *Worker) Start() error {
	go w.loop()
	return nil
}

func (w *Worker) Stop() error {
	close(w.quit)
	select {
	case <-w.closed:
		return nil
	case <-time.After(30 * time.Second):
		return fmt.Errorf("timeout waiting for publisher to exit")
	}
}
