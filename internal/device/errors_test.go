package device

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeError(t *testing.T) {
	tests := []struct {
		name   string
		input  error
		target error
	}{
		{
			name:   "darwin powered-off state",
			input:  errors.New("central manager has invalid state: have=4 want=5: is Bluetooth turned on?"),
			target: ErrBluetoothOff,
		},
		{
			name:   "explicit bluetooth off",
			input:  errors.New("Bluetooth is turned off"),
			target: ErrBluetoothOff,
		},
		{
			name:   "not connected",
			input:  errors.New("device not connected"),
			target: ErrNotConnected,
		},
		{
			name:   "disconnected mid-operation",
			input:  errors.New("peripheral disconnected"),
			target: ErrNotConnected,
		},
		{
			name:   "already connected",
			input:  errors.New("Device already connected"),
			target: ErrAlreadyConnected,
		},
		{
			name:   "not initialized",
			input:  errors.New("connection is not initialized"),
			target: ErrNotInitialized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NormalizeError(tt.input)
			assert.ErrorIs(t, err, tt.target)
			assert.Contains(t, err.Error(), tt.input.Error(), "original message MUST be preserved")
		})
	}

	t.Run("unknown errors pass through", func(t *testing.T) {
		orig := errors.New("att: insufficient authentication")
		assert.Same(t, orig, NormalizeError(orig))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, NormalizeError(nil))
	})
}

func TestConnectionError(t *testing.T) {
	err := &ConnectionError{State: NotConnected, Msg: "read 2a19"}

	assert.Equal(t, "not_connected: read 2a19", err.Error())
	assert.ErrorIs(t, err, ErrNotConnected, "errors.Is MUST compare by state")
	assert.NotErrorIs(t, err, ErrAlreadyConnected)
	assert.True(t, IsConnectionState(err, NotConnected))
	assert.False(t, IsConnectionState(errors.New("other"), NotConnected))
}

func TestNotFoundError(t *testing.T) {
	assert.Equal(t, `service "180d" not found`,
		(&NotFoundError{Resource: "service", UUIDs: []string{"180d"}}).Error())
	assert.Equal(t, `characteristic "2a37" not found in service "180d"`,
		(&NotFoundError{Resource: "characteristic", UUIDs: []string{"180d", "2a37"}}).Error())
	assert.Equal(t, "characteristic not found",
		(&NotFoundError{Resource: "characteristic"}).Error())
}
