package inspector

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/srg/blinspect/internal/device"
)

// Value is a characteristic value as reported by Walk
type Value struct {
	Data []byte // value bytes, truncated to the read limit
	Size int    // length of the value as read from the peripheral
	Read bool   // false when the characteristic was not read
}

// Truncated reports whether Data holds fewer bytes than were read
func (v Value) Truncated() bool {
	return len(v.Data) < v.Size
}

// Sink receives the walked GATT tree in transport order.
type Sink interface {
	Device(address string) error
	Service(svc device.Service) error
	Characteristic(char device.Characteristic, value Value) error
	Close() error
}

// TextSink streams a line-oriented report to a writer.
type TextSink struct {
	w io.Writer
}

// NewTextSink creates a TextSink writing to w
func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: w}
}

func (s *TextSink) Device(string) error {
	return nil
}

func (s *TextSink) Service(svc device.Service) error {
	_, err := fmt.Fprintf(s.w, "Service: %s%s\n", svc.UUID, nameSuffix(svc.KnownName))
	return err
}

func (s *TextSink) Characteristic(char device.Characteristic, value Value) error {
	if _, err := fmt.Fprintf(s.w, "  Characteristic: %s%s\n", char.UUID, nameSuffix(char.KnownName)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "    Properties: %s\n", char.Properties); err != nil {
		return err
	}
	if !value.Read {
		return nil
	}
	_, err := fmt.Fprintf(s.w, "    Value: %s\n", FormatValue(value))
	return err
}

func (s *TextSink) Close() error {
	return nil
}

func nameSuffix(name string) string {
	if name == "" {
		return ""
	}
	return " (" + name + ")"
}

// FormatValue renders a value as hex followed by its quoted string form, e.g. `005a | "\x00Z"`.
func FormatValue(v Value) string {
	s := fmt.Sprintf("%x | %q", v.Data, v.Data)
	if v.Truncated() {
		s += fmt.Sprintf(" (truncated, %d bytes)", v.Size)
	}
	return s
}

// Report is the JSON document produced by JSONSink
type Report struct {
	Address  string          `json:"address"`
	Services []ServiceReport `json:"services"`
}

type ServiceReport struct {
	device.Service
	Characteristics []CharacteristicReport `json:"characteristics"`
}

type CharacteristicReport struct {
	device.Characteristic
	Value     *string     `json:"value,omitempty"` // hex
	Size      *int        `json:"size,omitempty"`
	Truncated bool        `json:"truncated,omitempty"`
	Decoded   interface{} `json:"decoded,omitempty"` // well-known characteristics only
}

// JSONSink collects the tree into a Report and writes it as indented JSON on Close.
type JSONSink struct {
	w      io.Writer
	report Report
}

// NewJSONSink creates a JSONSink writing to w
func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{
		w:      w,
		report: Report{Services: []ServiceReport{}},
	}
}

func (s *JSONSink) Device(address string) error {
	s.report.Address = address
	return nil
}

func (s *JSONSink) Service(svc device.Service) error {
	s.report.Services = append(s.report.Services, ServiceReport{
		Service:         svc,
		Characteristics: []CharacteristicReport{},
	})
	return nil
}

func (s *JSONSink) Characteristic(char device.Characteristic, value Value) error {
	if len(s.report.Services) == 0 {
		return fmt.Errorf("characteristic %s reported before any service", char.UUID)
	}

	cr := CharacteristicReport{Characteristic: char}
	if value.Read {
		encoded := hex.EncodeToString(value.Data)
		size := value.Size
		cr.Value = &encoded
		cr.Size = &size
		cr.Truncated = value.Truncated()

		if !cr.Truncated && device.IsParsableCharacteristic(char.UUID) {
			if decoded, err := device.ParseCharacteristicValue(char.UUID, value.Data); err == nil {
				cr.Decoded = decoded
			}
		}
	}

	last := &s.report.Services[len(s.report.Services)-1]
	last.Characteristics = append(last.Characteristics, cr)
	return nil
}

func (s *JSONSink) Close() error {
	enc := json.NewEncoder(s.w)
	enc.SetIndent("", "  ")
	return enc.Encode(s.report)
}
