//go:build !linux

package bluez

// EnsurePoweredAdapter is a no-op where BlueZ is not available; the
// BLE stack manages the adapter itself on those platforms.
func EnsurePoweredAdapter(name string) error {
	return nil
}
