package device

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/srg/blinspect/internal/bledb"
)

// Well-known GATT characteristic UUIDs (16-bit short form, normalized without dashes)
const (
	CharacteristicDeviceName         = "2a00"
	CharacteristicAppearance         = "2a01"
	CharacteristicBatteryLevel       = "2a19"
	CharacteristicModelNumber        = "2a24"
	CharacteristicSerialNumber       = "2a25"
	CharacteristicFirmwareRevision   = "2a26"
	CharacteristicHardwareRevision   = "2a27"
	CharacteristicSoftwareRevision   = "2a28"
	CharacteristicManufacturerName   = "2a29"
	CharacteristicHeartRate          = "2a37"
	CharacteristicBodySensorLocation = "2a38"
)

// CharacteristicParser is a function that parses a characteristic value
type CharacteristicParser func([]byte) (interface{}, error)

// parseAppearance parses the Appearance characteristic (0x2A01) value
// Returns human-readable appearance category (e.g., "Phone"), or nil if unknown
func parseAppearance(value []byte) (interface{}, error) {
	if len(value) != 2 {
		return nil, fmt.Errorf("appearance value must be 2 bytes, got %d", len(value))
	}

	code := binary.LittleEndian.Uint16(value)
	name := bledb.LookupAppearance(code)
	if name == "" {
		return nil, nil
	}
	return name, nil
}

// parseUTF8 parses the Device Information string characteristics
func parseUTF8(value []byte) (interface{}, error) {
	if !utf8.Valid(value) {
		return nil, fmt.Errorf("value is not valid UTF-8")
	}
	return string(value), nil
}

// parseBatteryLevel returns the battery charge in percent
func parseBatteryLevel(value []byte) (interface{}, error) {
	if len(value) != 1 {
		return nil, fmt.Errorf("battery level must be 1 byte, got %d", len(value))
	}
	if value[0] > 100 {
		return nil, fmt.Errorf("battery level %d out of range", value[0])
	}
	return int(value[0]), nil
}

// parseHeartRate returns the measured beats per minute; bit 0 of the flags selects uint16 format
func parseHeartRate(value []byte) (interface{}, error) {
	if len(value) < 2 {
		return nil, fmt.Errorf("heart rate measurement too short: %d bytes", len(value))
	}
	if value[0]&0x01 == 0 {
		return int(value[1]), nil
	}
	if len(value) < 3 {
		return nil, fmt.Errorf("heart rate measurement too short for uint16 format: %d bytes", len(value))
	}
	return int(binary.LittleEndian.Uint16(value[1:3])), nil
}

var bodySensorLocations = [...]string{"Other", "Chest", "Wrist", "Finger", "Hand", "Ear Lobe", "Foot"}

func parseBodySensorLocation(value []byte) (interface{}, error) {
	if len(value) != 1 {
		return nil, fmt.Errorf("body sensor location must be 1 byte, got %d", len(value))
	}
	if int(value[0]) >= len(bodySensorLocations) {
		return nil, nil
	}
	return bodySensorLocations[value[0]], nil
}

// characteristicParsers maps normalized characteristic UUIDs to their parser functions
var characteristicParsers = map[string]CharacteristicParser{
	CharacteristicDeviceName:         parseUTF8,
	CharacteristicAppearance:         parseAppearance,
	CharacteristicBatteryLevel:       parseBatteryLevel,
	CharacteristicModelNumber:        parseUTF8,
	CharacteristicSerialNumber:       parseUTF8,
	CharacteristicFirmwareRevision:   parseUTF8,
	CharacteristicHardwareRevision:   parseUTF8,
	CharacteristicSoftwareRevision:   parseUTF8,
	CharacteristicManufacturerName:   parseUTF8,
	CharacteristicHeartRate:          parseHeartRate,
	CharacteristicBodySensorLocation: parseBodySensorLocation,
}

// IsParsableCharacteristic returns true if the characteristic UUID supports value parsing
func IsParsableCharacteristic(uuid string) bool {
	_, exists := characteristicParsers[NormalizeUUID(uuid)]
	return exists
}

// ParseCharacteristicValue decodes the value of a well-known characteristic.
// Returns (nil, nil) for unknown characteristics and unknown enumeration codes.
func ParseCharacteristicValue(uuid string, value []byte) (interface{}, error) {
	parser, exists := characteristicParsers[NormalizeUUID(uuid)]
	if !exists {
		return nil, nil
	}
	return parser(value)
}
