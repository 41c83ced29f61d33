package inspector

import (
	"errors"
	"fmt"
)

// Kind classifies an inspection failure
type Kind string

const (
	KindConnection  Kind = "connection"
	KindEnumeration Kind = "enumeration"
	KindRead        Kind = "read"
	KindUnknown     Kind = "unknown"
)

// ConnectError reports that the peripheral could not be reached
type ConnectError struct {
	Address string
	Err     error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("cannot connect to %s: %v", e.Address, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// EnumerationError reports a failed service or characteristic discovery.
// ServiceUUID is empty when the service list itself could not be retrieved.
type EnumerationError struct {
	Address     string
	ServiceUUID string
	Err         error
}

func (e *EnumerationError) Error() string {
	if e.ServiceUUID == "" {
		return fmt.Sprintf("cannot enumerate services of %s: %v", e.Address, e.Err)
	}
	return fmt.Sprintf("cannot enumerate characteristics of service %s on %s: %v", e.ServiceUUID, e.Address, e.Err)
}

func (e *EnumerationError) Unwrap() error {
	return e.Err
}

// ReadError reports a failed read of a readable characteristic
type ReadError struct {
	Address            string
	ServiceUUID        string
	CharacteristicUUID string
	Err                error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("cannot read characteristic %s of service %s on %s: %v",
		e.CharacteristicUUID, e.ServiceUUID, e.Address, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// ErrorKind returns the category of err, looking through wrapping
func ErrorKind(err error) Kind {
	var (
		connErr *ConnectError
		enumErr *EnumerationError
		readErr *ReadError
	)
	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &connErr):
		return KindConnection
	case errors.As(err, &enumErr):
		return KindEnumeration
	case errors.As(err, &readErr):
		return KindRead
	default:
		return KindUnknown
	}
}
