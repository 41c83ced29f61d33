//go:build linux

package goble

import (
	"fmt"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
)

func newPlatformDevice() (ble.Device, error) {
	dev, err := linux.NewDevice()
	if err != nil {
		return nil, fmt.Errorf("creating linux HCI device: %w", err)
	}
	return dev, nil
}
