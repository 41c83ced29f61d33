package device

import (
	"encoding/json"
	"strings"
)

// Properties is the GATT characteristic property bit field (Bluetooth Core Vol 3, Part G, 3.3.1.1).
type Properties uint8

// Property bits as they appear on the wire
const (
	PropBroadcast            Properties = 0x01
	PropRead                 Properties = 0x02
	PropWriteWithoutResponse Properties = 0x04
	PropWrite                Properties = 0x08
	PropNotify               Properties = 0x10
	PropIndicate             Properties = 0x20
	PropSignedWrite          Properties = 0x40
	PropExtended             Properties = 0x80
)

var propertyNames = [...]struct {
	bit  Properties
	name string
}{
	{PropBroadcast, "BROADCAST"},
	{PropRead, "READ"},
	{PropWriteWithoutResponse, "WRITE NO RESPONSE"},
	{PropWrite, "WRITE"},
	{PropNotify, "NOTIFY"},
	{PropIndicate, "INDICATE"},
	{PropSignedWrite, "SIGNED WRITE"},
	{PropExtended, "EXTENDED PROPERTIES"},
}

// Has reports whether all bits of p are set.
func (ps Properties) Has(p Properties) bool {
	return ps&p == p
}

// CanRead reports whether the characteristic supports reads.
func (ps Properties) CanRead() bool {
	return ps.Has(PropRead)
}

// Names returns the names of the set bits in ascending bit order.
func (ps Properties) Names() []string {
	names := make([]string, 0, len(propertyNames))
	for _, p := range propertyNames {
		if ps&p.bit != 0 {
			names = append(names, p.name)
		}
	}
	return names
}

// String renders the set as e.g. "READ, WRITE NO RESPONSE, NOTIFY", or "NONE" when empty.
func (ps Properties) String() string {
	if ps == 0 {
		return "NONE"
	}
	return strings.Join(ps.Names(), ", ")
}

// MarshalJSON encodes the set as a list of property names.
func (ps Properties) MarshalJSON() ([]byte, error) {
	return json.Marshal(ps.Names())
}

// ParseProperties parses a comma-separated property list such as "read,write,notify".
// Both the rendered names ("WRITE NO RESPONSE") and the short forms used in device
// profiles ("write-nr", "writenr") are accepted. Unknown entries are reported as false.
func ParseProperties(s string) (Properties, bool) {
	var ps Properties
	for _, field := range strings.Split(s, ",") {
		field = strings.ToLower(strings.TrimSpace(field))
		switch field {
		case "":
			continue
		case "broadcast":
			ps |= PropBroadcast
		case "read":
			ps |= PropRead
		case "write no response", "write-nr", "writenr", "write-without-response":
			ps |= PropWriteWithoutResponse
		case "write":
			ps |= PropWrite
		case "notify":
			ps |= PropNotify
		case "indicate":
			ps |= PropIndicate
		case "signed write", "signed-write":
			ps |= PropSignedWrite
		case "extended properties", "extended":
			ps |= PropExtended
		default:
			return ps, false
		}
	}
	return ps, true
}
