package device

import (
	"context"

	"github.com/pkg/errors"
)

// Transmit error taxonomy. ErrNotConnected is returned immediately for
// writes attempted outside the Connected state; nothing is queued.
var (
	ErrNotConnected = errors.New("device not connected")
	ErrWriteTimeout = errors.New("write timed out")
)

// Transport abstracts the BLE stack: scan-by-name and connect. The
// worker depends only on this, so the session logic is testable
// without a radio.
type Transport interface {
	// FindDevice scans advertisements until one whose name contains
	// name is seen, or ctx expires.
	FindDevice(ctx context.Context, name string) (address string, err error)
	// Connect establishes the GATT connection, discovers the write and
	// notify characteristics and subscribes to notifications.
	Connect(ctx context.Context, address string) (Link, error)
}

// Link is an established, subscribed connection to the station.
type Link interface {
	// Notifications delivers raw inbound frames.
	Notifications() <-chan []byte
	// Done is closed when the underlying link drops.
	Done() <-chan struct{}
	// Write pushes one frame to the command characteristic.
	Write(frame []byte) error
	Close() error
}
