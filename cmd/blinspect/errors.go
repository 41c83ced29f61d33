package main

import (
	"errors"
	"fmt"

	"github.com/srg/blinspect/inspector"
	"github.com/srg/blinspect/internal/device"
)

// Process exit codes
const (
	exitOK          = 0
	exitFailure     = 1
	exitConnection  = 2
	exitEnumeration = 3
	exitRead        = 4
)

// exitCode maps an inspection failure to the process exit status
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	switch inspector.ErrorKind(err) {
	case inspector.KindConnection:
		return exitConnection
	case inspector.KindEnumeration:
		return exitEnumeration
	case inspector.KindRead:
		return exitRead
	default:
		return exitFailure
	}
}

// FormatUserError renders err for the terminal, adding a hint for well-known causes.
func FormatUserError(err error) string {
	msg := err.Error()
	switch {
	case errors.Is(err, device.ErrBluetoothOff):
		return fmt.Sprintf("%s\nHint: turn Bluetooth on and try again", msg)
	case errors.Is(err, device.ErrUnsupported) && inspector.ErrorKind(err) == inspector.KindConnection:
		return fmt.Sprintf("%s\nHint: BLE is only supported on linux and macOS", msg)
	case errors.Is(err, device.ErrTimeout) && inspector.ErrorKind(err) == inspector.KindConnection:
		return fmt.Sprintf("%s\nHint: make sure the device is powered, in range and advertising", msg)
	case device.IsConnectionState(err, device.NotConnected) && inspector.ErrorKind(err) != inspector.KindConnection:
		return fmt.Sprintf("%s\nHint: the device dropped the connection during inspection, move it closer and retry", msg)
	default:
		return msg
	}
}
