package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/juju/loggo"
	"github.com/pkg/errors"

	"powerhouse-bridge/config"
	"powerhouse-bridge/params"
	"powerhouse-bridge/protocol"
	"powerhouse-bridge/state"
)

var log = loggo.GetLogger("phb.device")

// NewWorker builds the session worker. updates may be nil; when set,
// each decoded telemetry frame is also offered on it (non-blocking)
// for downstream publishers.
func NewWorker(ctx context.Context, cfg *config.Config, store *state.Store, transport Transport, updates chan<- params.Telemetry) *Worker {
	return &Worker{
		ctx:       ctx,
		closed:    make(chan struct{}),
		quit:      make(chan struct{}),
		cfg:       cfg.Device,
		store:     store,
		transport: transport,
		updates:   updates,
	}
}

// Worker owns the BLE session lifecycle: scan, connect, subscribe,
// consume notifications, reconnect with capped exponential backoff.
// It is the sole writer of telemetry and connection status, and the
// single owner of the outbound write path.
type Worker struct {
	ctx    context.Context
	closed chan struct{}
	quit   chan struct{}

	cfg       config.Device
	store     *state.Store
	transport Transport
	updates   chan<- params.Telemetry

	// mux serializes outbound writes and guards link. It is held for
	// the duration of a write; the protocol has no reply correlation,
	// so at most one write may be in flight.
	mux  sync.Mutex
	link Link
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
		return fmt.Errorf("timeout waiting for device worker to exit")
	}
}

// Transmit writes one encoded command frame. It fails immediately with
// ErrNotConnected outside the Connected state rather than queuing.
func (w *Worker) Transmit(frame []byte) error {
	w.mux.Lock()
	defer w.mux.Unlock()

	if w.link == nil {
		return ErrNotConnected
	}

	done := make(chan error, 1)
	link := w.link
	go func() {
		done <- link.Write(frame)
	}()

	select {
	case err := <-done:
		return errors.Wrap(err, "writing command frame")
	case <-time.After(time.Duration(w.cfg.WriteTimeout) * time.Second):
		return ErrWriteTimeout
	}
}

func (w *Worker) loop() {
	defer close(w.closed)

	initial := time.Duration(w.cfg.ReconnectDelay) * time.Second
	max := time.Duration(w.cfg.ReconnectMaxDelay) * time.Second
	delay := initial

	for {
		connected, err := w.connectAndListen()
		if w.stopping() {
			w.store.SetConnectionState(params.StateDisconnected, nil)
			return
		}

		if err != nil {
			log.Errorf("session ended: %s", err)
		} else {
			log.Infof("connection closed, reconnecting")
		}
		w.store.SetConnectionState(params.StateDisconnected, err)

		if connected {
			// The link was up; start the backoff ladder over.
			delay = initial
		}

		select {
		case <-time.After(delay):
		case <-w.quit:
			w.store.SetConnectionState(params.StateDisconnected, nil)
			return
		case <-w.ctx.Done():
			w.store.SetConnectionState(params.StateDisconnected, nil)
			return
		}

		delay *= 2
		if delay > max {
			delay = max
		}
	}
}

// connectAndListen runs one session cycle. The bool reports whether
// the Connected state was reached.
func (w *Worker) connectAndListen() (bool, error) {
	w.store.SetConnectionState(params.StateScanning, nil)
	log.Infof("scanning for %q", w.cfg.Name)

	scanCtx, cancel := context.WithTimeout(w.ctx, time.Duration(w.cfg.ScanTimeout)*time.Second)
	address, err := w.transport.FindDevice(scanCtx, w.cfg.Name)
	cancel()
	if err != nil {
		return false, errors.Wrap(err, "scanning for device")
	}

	w.store.SetConnectionState(params.StateConnecting, nil)
	log.Infof("connecting to %s", address)

	connCtx, cancel := context.WithTimeout(w.ctx, time.Duration(w.cfg.ConnectTimeout)*time.Second)
	link, err := w.transport.Connect(connCtx, address)
	cancel()
	if err != nil {
		return false, errors.Wrap(err, "connecting to device")
	}

	w.setLink(link)
	defer w.clearLink()

	w.store.SetConnectionState(params.StateConnected, nil)
	log.Infof("connected and subscribed to notifications")

	for {
		select {
		case frame := <-link.Notifications():
			w.handleFrame(frame)
		case <-link.Done():
			return true, errors.New("link lost")
		case <-w.quit:
			return true, nil
		case <-w.ctx.Done():
			return true, nil
		}
	}
}

// handleFrame decodes one notification. A frame that fails to decode
// is logged and dropped; the connection stays up.
func (w *Worker) handleFrame(frame []byte) {
	pkt, err := protocol.DecodeNotification(frame)
	if err != nil {
		log.Warningf("dropping unparseable frame (%d bytes): %s", len(frame), err)
		return
	}

	switch p := pkt.(type) {
	case *protocol.TelemetryPacket:
		log.Debugf("telemetry: battery=%d%%, out=%dW", p.Telemetry.TotalBatteryPercentage, p.Telemetry.TotalOutputWatts)
		w.store.ApplyTelemetry(p.Telemetry)
		if w.updates != nil {
			select {
			case w.updates <- p.Telemetry.Clone():
			default:
			}
		}
	case *protocol.StateAckPacket:
		log.Debugf("state ack: %+v", p.StateAck)
		w.store.ApplyStateAck(p.StateAck)
	case *protocol.CommandAckPacket:
		log.Debugf("command ack: %s", p.CommandType)
	}
}

func (w *Worker) setLink(link Link) {
	w.mux.Lock()
	defer w.mux.Unlock()
	w.link = link
}

func (w *Worker) clearLink() {
	w.mux.Lock()
	defer w.mux.Unlock()
	if w.link != nil {
		if err := w.link.Close(); err != nil {
			log.Debugf("closing link: %s", err)
		}
		w.link = nil
	}
}

func (w *Worker) stopping() bool {
	select {
	case <-w.quit:
		return true
	case <-w.ctx.Done():
		return true
	default:
		return false
	}
}
