package device

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/srg/blinspect/internal/bledb"
)

// NormalizeUUID is re-exported from bledb for convenience.
// It converts a UUID string to the internal format (lowercase, no dashes).
// For full 128-bit UUIDs in Bluetooth SIG base format (0000xxxx-0000-1000-8000-00805f9b34fb),
// extracts the 16-bit short form (xxxx).
func NormalizeUUID(uuid string) string {
	return bledb.NormalizeUUID(uuid)
}

var (
	macAddressPattern   = regexp.MustCompile(`^[0-9a-fA-F]{2}(:[0-9a-fA-F]{2}){5}$`)
	peripheralIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-?[0-9a-fA-F]{4}-?[0-9a-fA-F]{4}-?[0-9a-fA-F]{4}-?[0-9a-fA-F]{12}$`)
)

// ValidateAddress checks that address is either six colon-separated hex byte pairs
// (e.g. "58:2d:34:35:f3:d4") or a 128-bit peripheral identifier as CoreBluetooth reports it.
// Returns the trimmed, lowercased address.
func ValidateAddress(address string) (string, error) {
	a := strings.ToLower(strings.TrimSpace(address))
	if a == "" {
		return "", fmt.Errorf("device address is empty")
	}
	if !macAddressPattern.MatchString(a) && !peripheralIDPattern.MatchString(a) {
		return "", fmt.Errorf("invalid device address %q: expected six colon-separated hex pairs (e.g. 58:2d:34:35:f3:d4)", address)
	}
	return a, nil
}
