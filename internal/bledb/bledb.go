// Package bledb resolves Bluetooth SIG assigned numbers to human-readable names.
//
// The tables cover the GATT services and characteristics most peripherals expose.
// Lookups accept any UUID spelling NormalizeUUID understands and return an empty
// string for unknown UUIDs.
package bledb

import "strings"

// sigBaseSuffix is the tail of the Bluetooth SIG base UUID 0000xxxx-0000-1000-8000-00805f9b34fb
// in normalized (dashless) form.
const sigBaseSuffix = "00001000800000805f9b34fb"

// NormalizeUUID converts a UUID string to the internal format: lowercase, no dashes,
// no braces and no 0x prefix. Full 128-bit UUIDs built on the Bluetooth SIG base
// are shortened to their 16-bit form ("0000180d-0000-1000-8000-00805f9b34fb" -> "180d").
func NormalizeUUID(uuid string) string {
	u := strings.ToLower(strings.TrimSpace(uuid))
	u = strings.TrimPrefix(u, "0x")
	u = strings.Trim(u, "{}")
	u = strings.ReplaceAll(u, "-", "")

	if len(u) == 32 && strings.HasPrefix(u, "0000") && strings.HasSuffix(u, sigBaseSuffix) {
		return u[4:8]
	}
	return u
}

// LookupService returns the SIG name of a GATT service, or "" if unknown.
func LookupService(uuid string) string {
	return services[NormalizeUUID(uuid)]
}

// LookupCharacteristic returns the SIG name of a GATT characteristic, or "" if unknown.
func LookupCharacteristic(uuid string) string {
	return characteristics[NormalizeUUID(uuid)]
}

// LookupAppearance returns the category name of a GAP Appearance value, or "" if unknown.
// The upper ten bits of the value select the category.
func LookupAppearance(code uint16) string {
	return appearanceCategories[code>>6]
}

var services = map[string]string{
	"1800":                             "Generic Access",
	"1801":                             "Generic Attribute",
	"1802":                             "Immediate Alert",
	"1803":                             "Link Loss",
	"1804":                             "Tx Power",
	"1805":                             "Current Time",
	"1809":                             "Health Thermometer",
	"180a":                             "Device Information",
	"180d":                             "Heart Rate",
	"180f":                             "Battery Service",
	"1810":                             "Blood Pressure",
	"1812":                             "Human Interface Device",
	"1816":                             "Cycling Speed and Cadence",
	"1818":                             "Cycling Power",
	"1819":                             "Location and Navigation",
	"181a":                             "Environmental Sensing",
	"181c":                             "User Data",
	"181d":                             "Weight Scale",
	"1826":                             "Fitness Machine",
	"fe59":                             "Nordic DFU",
	"6e400001b5a3f393e0a9e50e24dcca9e": "Nordic UART Service",
}

var characteristics = map[string]string{
	"2a00":                             "Device Name",
	"2a01":                             "Appearance",
	"2a04":                             "Peripheral Preferred Connection Parameters",
	"2a05":                             "Service Changed",
	"2a06":                             "Alert Level",
	"2a07":                             "Tx Power Level",
	"2a19":                             "Battery Level",
	"2a1c":                             "Temperature Measurement",
	"2a23":                             "System ID",
	"2a24":                             "Model Number String",
	"2a25":                             "Serial Number String",
	"2a26":                             "Firmware Revision String",
	"2a27":                             "Hardware Revision String",
	"2a28":                             "Software Revision String",
	"2a29":                             "Manufacturer Name String",
	"2a2b":                             "Current Time",
	"2a37":                             "Heart Rate Measurement",
	"2a38":                             "Body Sensor Location",
	"2a39":                             "Heart Rate Control Point",
	"2a4d":                             "Report",
	"2a50":                             "PnP ID",
	"2a5b":                             "CSC Measurement",
	"2a63":                             "Cycling Power Measurement",
	"2a6e":                             "Temperature",
	"2a6f":                             "Humidity",
	"2aa6":                             "Central Address Resolution",
	"6e400002b5a3f393e0a9e50e24dcca9e": "Nordic UART RX",
	"6e400003b5a3f393e0a9e50e24dcca9e": "Nordic UART TX",
}

var appearanceCategories = map[uint16]string{
	0:  "Unknown",
	1:  "Phone",
	2:  "Computer",
	3:  "Watch",
	4:  "Clock",
	5:  "Display",
	6:  "Remote Control",
	7:  "Eye-glasses",
	8:  "Tag",
	9:  "Keyring",
	10: "Media Player",
	11: "Barcode Scanner",
	12: "Thermometer",
	13: "Heart Rate Sensor",
	14: "Blood Pressure",
	15: "Human Interface Device",
	16: "Glucose Meter",
	17: "Running Walking Sensor",
	18: "Cycling",
	49: "Pulse Oximeter",
	50: "Weight Scale",
}
