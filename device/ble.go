package device

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"tinygo.org/x/bluetooth"
)

var (
	commandCharUUID = bluetooth.New16BitUUID(0x7777)
	notifyCharUUID  = bluetooth.New16BitUUID(0x8888)
)

// NewBLETransport returns a Transport backed by the default system
// Bluetooth adapter.
func NewBLETransport() *BLETransport {
	return &BLETransport{
		adapter:   bluetooth.DefaultAdapter,
		addresses: map[string]bluetooth.Address{},
		links:     map[string]*bleLink{},
	}
}

// BLETransport discovers and connects to the power station over BLE.
// Addresses handed out by FindDevice are opaque and only valid for a
// subsequent Connect on the same transport.
type BLETransport struct {
	adapter    *bluetooth.Adapter
	enableOnce sync.Once
	enableErr  error

	mux       sync.Mutex
	addresses map[string]bluetooth.Address
	links     map[string]*bleLink
}

func (t *BLETransport) enable() error {
	t.enableOnce.Do(func() {
		if err := t.adapter.Enable(); err != nil {
			t.enableErr = errors.Wrap(err, "enabling bluetooth adapter")
			return
		}
		t.adapter.SetConnectHandler(t.onConnectionChange)
	})
	return t.enableErr
}

func (t *BLETransport) onConnectionChange(dev bluetooth.Device, connected bool) {
	if connected {
		return
	}
	t.mux.Lock()
	link, ok := t.links[dev.Address.String()]
	t.mux.Unlock()
	if ok {
		link.markDone()
	}
}

// FindDevice scans until an advertisement whose local name contains
// name is seen, or ctx expires.
func (t *BLETransport) FindDevice(ctx context.Context, name string) (string, error) {
	if err := t.enable(); err != nil {
		return "", err
	}

	found := make(chan bluetooth.Address, 1)
	scanErr := make(chan error, 1)

	go func() {
		err := t.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			if !strings.Contains(result.LocalName(), name) {
				return
			}
			select {
			case found <- result.Address:
			default:
			}
		})
		if err != nil {
			scanErr <- err
		}
	}()

	select {
	case addr := <-found:
		if err := t.adapter.StopScan(); err != nil {
			log.Debugf("stopping scan: %s", err)
		}
		key := addr.String()
		t.mux.Lock()
		t.addresses[key] = addr
		t.mux.Unlock()
		return key, nil
	case err := <-scanErr:
		return "", errors.Wrap(err, "starting scan")
	case <-ctx.Done():
		if err := t.adapter.StopScan(); err != nil {
			log.Debugf("stopping scan: %s", err)
		}
		return "", errors.Wrap(ctx.Err(), "waiting for advertisement")
	}
}

// Connect dials the address, discovers the command and notification
// characteristics and subscribes to notifications.
func (t *BLETransport) Connect(ctx context.Context, address string) (Link, error) {
	if err := t.enable(); err != nil {
		return nil, err
	}

	t.mux.Lock()
	addr, ok := t.addresses[address]
	t.mux.Unlock()
	if !ok {
		return nil, errors.Errorf("unknown device address %q", address)
	}

	connParams := bluetooth.ConnectionParams{}
	if deadline, ok := ctx.Deadline(); ok {
		connParams.ConnectionTimeout = bluetooth.NewDuration(time.Until(deadline))
	}

	dev, err := t.adapter.Connect(addr, connParams)
	if err != nil {
		return nil, errors.Wrap(err, "connecting")
	}

	link := &bleLink{
		device: dev,
		frames: make(chan []byte, 16),
		done:   make(chan struct{}),
	}

	if err := link.setupCharacteristics(); err != nil {
		_ = dev.Disconnect()
		return nil, err
	}

	err = link.notifyChar.EnableNotifications(func(buf []byte) {
		frame := make([]byte, len(buf))
		copy(frame, buf)
		select {
		case link.frames <- frame:
		case <-link.done:
		default:
			log.Warningf("dropping notification, consumer is behind")
		}
	})
	if err != nil {
		_ = dev.Disconnect()
		return nil, errors.Wrap(err, "enabling notifications")
	}

	t.mux.Lock()
	t.links[address] = link
	t.mux.Unlock()
	return link, nil
}

type bleLink struct {
	device    bluetooth.Device
	writeChar bluetooth.DeviceCharacteristic

	notifyChar bluetooth.DeviceCharacteristic
	frames     chan []byte

	doneOnce sync.Once
	done     chan struct{}
}

func (l *bleLink) setupCharacteristics() error {
	services, err := l.device.DiscoverServices(nil)
	if err != nil {
		return errors.Wrap(err, "discovering services")
	}

	var haveWrite, haveNotify bool
	for _, service := range services {
		chars, err := service.DiscoverCharacteristics(nil)
		if err != nil {
			return errors.Wrap(err, "discovering characteristics")
		}
		for _, char := range chars {
			switch char.UUID() {
			case commandCharUUID:
				l.writeChar = char
				haveWrite = true
			case notifyCharUUID:
				l.notifyChar = char
				haveNotify = true
			}
		}
	}

	if !haveWrite || !haveNotify {
		return errors.New("device is missing the expected characteristics")
	}
	return nil
}

func (l *bleLink) Notifications() <-chan []byte {
	return l.frames
}

func (l *bleLink) Done() <-chan struct{} {
	return l.done
}

func (l *bleLink) Write(frame []byte) error {
	_, err := l.writeChar.WriteWithoutResponse(frame)
	return err
}

func (l *bleLink) Close() error {
	l.markDone()
	return l.device.Disconnect()
}

func (l *bleLink) markDone() {
	l.doneOnce.Do(func() {
		close(l.done)
	})
}
