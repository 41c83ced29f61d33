// Package device defines how the inspector talks to a Bluetooth Low Energy peripheral.
//
// A Transport dials a peripheral by address and returns a Peripheral answering explicit
// discovery and read queries with plain records (Service, Characteristic). Records carry
// normalized UUIDs, Bluetooth SIG names where known, and the GATT property bit set.
//
// The package also holds the typed errors shared by all transports and the helpers for
// UUIDs, addresses and well-known characteristic values.
package device
