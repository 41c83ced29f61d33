package device_test

import (
	"testing"

	"github.com/srg/blinspect/internal/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsParsableCharacteristic(t *testing.T) {
	assert.True(t, device.IsParsableCharacteristic("2a01"), "Appearance MUST have a parser")
	assert.True(t, device.IsParsableCharacteristic("00002A19-0000-1000-8000-00805F9B34FB"), "long SIG form MUST be normalized")
	assert.False(t, device.IsParsableCharacteristic("ffff"), "custom UUIDs MUST NOT have a parser")

	// Idempotent
	assert.Equal(t, device.IsParsableCharacteristic("2a37"), device.IsParsableCharacteristic("2a37"))
}

func TestWellKnownCharacteristicParsers(t *testing.T) {
	tests := []struct {
		name    string
		uuid    string
		value   []byte
		want    interface{}
		wantErr string
	}{
		{name: "appearance phone", uuid: "2a01", value: []byte{0x40, 0x00}, want: "Phone"},
		{name: "appearance heart rate belt", uuid: "2a01", value: []byte{0x41, 0x03}, want: "Heart Rate Sensor"},
		{name: "appearance unknown", uuid: "2a01", value: []byte{0xff, 0xff}, want: nil},
		{name: "appearance 1 byte", uuid: "2a01", value: []byte{0x40}, wantErr: "appearance value must be 2 bytes"},
		{name: "appearance empty", uuid: "2a01", value: []byte{}, wantErr: "appearance value must be 2 bytes"},
		{name: "appearance nil", uuid: "2a01", value: nil, wantErr: "appearance value must be 2 bytes"},
		{name: "appearance 3 bytes", uuid: "2a01", value: []byte{0x40, 0x00, 0xff}, wantErr: "appearance value must be 2 bytes"},

		{name: "device name", uuid: "2a00", value: []byte("Polar H10"), want: "Polar H10"},
		{name: "manufacturer", uuid: "2a29", value: []byte("ACME"), want: "ACME"},
		{name: "invalid utf8", uuid: "2a24", value: []byte{0xff, 0xfe}, wantErr: "not valid UTF-8"},

		{name: "battery level", uuid: "2a19", value: []byte{85}, want: 85},
		{name: "battery out of range", uuid: "2a19", value: []byte{101}, wantErr: "out of range"},
		{name: "battery too long", uuid: "2a19", value: []byte{1, 2}, wantErr: "must be 1 byte"},

		{name: "heart rate uint8", uuid: "2a37", value: []byte{0x00, 0x5a}, want: 90},
		{name: "heart rate uint16", uuid: "2a37", value: []byte{0x01, 0x2c, 0x01}, want: 300},
		{name: "heart rate truncated", uuid: "2a37", value: []byte{0x01, 0x2c}, wantErr: "uint16 format"},
		{name: "heart rate short", uuid: "2a37", value: []byte{0x00}, wantErr: "too short"},

		{name: "sensor location chest", uuid: "2a38", value: []byte{1}, want: "Chest"},
		{name: "sensor location reserved", uuid: "2a38", value: []byte{42}, want: nil},

		{name: "unregistered", uuid: "ffff", value: []byte{1, 2, 3}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := device.ParseCharacteristicValue(tt.uuid, tt.value)
			if tt.wantErr != "" {
				require.Error(t, err, "parser MUST reject malformed data")
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, parsed, "parsed value MUST be nil when error occurs")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, parsed)
		})
	}
}
