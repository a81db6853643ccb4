// Package bluez talks to the BlueZ daemon over the system bus for
// adapter checks that the BLE stack does not expose.
package bluez

import (
	"fmt"

	dbus "github.com/godbus/dbus/v5"
	"github.com/juju/loggo"
	"github.com/pkg/errors"
)

var log = loggo.GetLogger("phb.bluez")

const (
	bluezBusName         = "org.bluez"
	adapterPoweredMember = "org.bluez.Adapter1.Powered"
)

// EnsurePoweredAdapter verifies the named adapter (hci0, hci1, ...)
// exists and powers it on if needed. A missing BlueZ daemon or adapter
// is fatal for the bridge, so errors here are returned rather than
// retried.
func EnsurePoweredAdapter(name string) error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return errors.Wrap(err, "connecting to system bus")
	}
	defer conn.Close()

	path := dbus.ObjectPath(fmt.Sprintf("/org/bluez/%s", name))
	obj := conn.Object(bluezBusName, path)

	powered, err := obj.GetProperty(adapterPoweredMember)
	if err != nil {
		return errors.Wrapf(err, "querying adapter %s", name)
	}

	if on, ok := powered.Value().(bool); ok && on {
		log.Debugf("adapter %s is powered", name)
		return nil
	}

	log.Infof("powering on adapter %s", name)
	if err := obj.SetProperty(adapterPoweredMember, dbus.MakeVariant(true)); err != nil {
		return errors.Wrapf(err, "powering on adapter %s", name)
	}
	return nil
}
