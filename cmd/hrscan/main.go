// hrscan scans for peripherals advertising the Heart Rate Service and
// prints them, so a device address can be pinned in the monitor config.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/chengwu26/heart-rate-monitor/internal/ble"
)

func main() {
	timeout := flag.Duration("timeout", 10*time.Second, "how long to scan")
	flag.Parse()

	adapter := ble.NewBluetoothAdapter()
	if err := adapter.Enable(); err != nil {
		log.Fatalf("enable BLE adapter: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Printf("Scanning for heart rate devices (%s)...\n", *timeout)

	seen := make(map[string]bool)
	err := adapter.Scan(ctx, ble.HeartRateServiceUUID, func(d ble.Device) bool {
		if seen[d.Address] {
			return false
		}
		seen[d.Address] = true
		name := d.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Printf("  %-24s %s  RSSI %d\n", name, d.Address, d.RSSI)
		return false
	})
	if err != nil {
		log.Fatalf("scan: %v", err)
	}

	if len(seen) == 0 {
		fmt.Println("No heart rate devices found. Is the sensor awake and in range?")
		return
	}
	fmt.Printf("\n%d device(s) found. Pin one with device.address in the config.\n", len(seen))
}
