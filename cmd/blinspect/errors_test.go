package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/srg/blinspect/inspector"
	"github.com/srg/blinspect/internal/device"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, exitOK},
		{"usage", errors.New("no device address given"), exitFailure},
		{"connection", &inspector.ConnectError{Err: cause}, exitConnection},
		{"enumeration", &inspector.EnumerationError{Err: cause}, exitEnumeration},
		{"read", &inspector.ReadError{Err: cause}, exitRead},
		{"wrapped read", fmt.Errorf("inspect: %w", &inspector.ReadError{Err: cause}), exitRead},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestFormatUserError(t *testing.T) {
	t.Run("plain error unchanged", func(t *testing.T) {
		assert.Equal(t, "boom", FormatUserError(errors.New("boom")))
	})

	t.Run("bluetooth off hint", func(t *testing.T) {
		err := &inspector.ConnectError{Address: "aa:bb:cc:dd:ee:ff", Err: fmt.Errorf("%w: powered off", device.ErrBluetoothOff)}
		assert.Contains(t, FormatUserError(err), "Hint: turn Bluetooth on")
	})

	t.Run("connect timeout hint", func(t *testing.T) {
		err := &inspector.ConnectError{Address: "aa:bb:cc:dd:ee:ff", Err: device.ErrTimeout}
		assert.Contains(t, FormatUserError(err), "in range and advertising")
	})

	t.Run("link lost during walk hint", func(t *testing.T) {
		err := &inspector.ReadError{CharacteristicUUID: "2a19", Err: device.NormalizeError(errors.New("device disconnected"))}
		assert.Contains(t, FormatUserError(err), "dropped the connection during inspection")

		err2 := &inspector.EnumerationError{Err: fmt.Errorf("%w: discovery", device.ErrNotConnected)}
		assert.Contains(t, FormatUserError(err2), "dropped the connection")
	})

	t.Run("read timeout has no connect hint", func(t *testing.T) {
		err := &inspector.ReadError{Err: device.ErrTimeout}
		assert.NotContains(t, FormatUserError(err), "Hint")
	})
}

func TestPrintError(t *testing.T) {
	err := errors.New("boom")

	var plain bytes.Buffer
	printError(&plain, err, false)
	assert.Equal(t, "ERROR: boom\n", plain.String())

	var colored bytes.Buffer
	printError(&colored, err, true)
	assert.Contains(t, colored.String(), "\x1b[")
	assert.Contains(t, colored.String(), "ERROR:")
	assert.Contains(t, colored.String(), "boom\n")
}

func TestFormatVersion(t *testing.T) {
	assert.Equal(t, "v1.2.3", formatVersion("1.2.3"))
	assert.Equal(t, "dev", formatVersion("dev"))
	assert.Equal(t, "", formatVersion(""))
}
