package goble

import (
	"fmt"

	"github.com/srg/blinspect/internal/device"
)

// darwinPoweredOff is what CoreBluetooth reports through go-ble when the radio is off.
const darwinPoweredOff = "central manager has invalid state: have=4 want=5: is Bluetooth turned on?"

// NormalizeError maps known go-ble error strings to structured device errors.
// Returns wrapped errors to preserve original context.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}
	if err.Error() == darwinPoweredOff {
		return fmt.Errorf("%w: %v", device.ErrBluetoothOff, err)
	}
	return device.NormalizeError(err)
}
