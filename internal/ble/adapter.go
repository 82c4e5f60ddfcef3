// Package ble owns the Bluetooth session to a Heart Rate Service
// peripheral: discovery, connection, characteristic subscription, and
// automatic reconnection. Decoded readings are handed off through the
// store package; nothing else touches the radio link.
package ble

import "context"

// Standard Heart Rate Service UUIDs (assigned numbers 0x180D / 0x2A37).
const (
	HeartRateServiceUUID     = "0000180d-0000-1000-8000-00805f9b34fb"
	HeartRateMeasurementUUID = "00002a37-0000-1000-8000-00805f9b34fb"
)

// Characteristic represents a BLE GATT characteristic that supports
// notifications.
type Characteristic interface {
	// Subscribe registers a callback for notifications on this characteristic.
	Subscribe(callback func(data []byte)) error
	// Unsubscribe disables notifications.
	Unsubscribe() error
}

// Device represents a discovered BLE peripheral.
type Device struct {
	Name    string
	Address string // MAC address, or CoreBluetooth UUID on macOS
	RSSI    int
}

// Connection represents an active BLE connection to a peripheral.
type Connection interface {
	// DiscoverCharacteristic finds a characteristic by UUID within a service.
	DiscoverCharacteristic(serviceUUID, charUUID string) (Characteristic, error)
	// Disconnect terminates the connection.
	Disconnect() error
	// OnDisconnect registers a callback invoked when the connection drops.
	OnDisconnect(callback func())
}

// Adapter abstracts the BLE hardware adapter for testing.
type Adapter interface {
	// Enable powers on the BLE adapter.
	Enable() error
	// Scan reports peripherals advertising the given service UUID to found
	// until found returns true or ctx is done.
	Scan(ctx context.Context, serviceUUID string, found func(Device) bool) error
	// Connect establishes a connection to the device at the given address.
	Connect(ctx context.Context, address string) (Connection, error)
}
