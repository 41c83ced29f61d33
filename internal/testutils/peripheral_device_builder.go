package testutils

import (
	"encoding/json"
	"fmt"
	"time"

	blelib "github.com/go-ble/ble"
	"github.com/srg/blinspect/internal/bledb"
	"github.com/srg/blinspect/internal/device"
	"github.com/srg/blinspect/internal/testutils/mocks"
	"github.com/stretchr/testify/mock"
)

// CharacteristicConfig represents a BLE characteristic configuration for mocking
type CharacteristicConfig struct {
	UUID       string `json:"uuid"`
	Properties string `json:"properties,omitempty"` // e.g., "read,write,notify"
	Value      []byte `json:"value,omitempty"`

	readDelay time.Duration
	readErr   error
}

// ServiceConfig represents a BLE service configuration for mocking
type ServiceConfig struct {
	UUID            string                 `json:"uuid"`
	Characteristics []CharacteristicConfig `json:"characteristics,omitempty"`

	discoverErr error
}

// DeviceProfileConfig represents the complete device profile for mocking
type DeviceProfileConfig struct {
	Services []ServiceConfig `json:"services"`
}

// CharacteristicOption customizes a mocked characteristic
type CharacteristicOption func(*CharacteristicConfig)

// WithReadDelay delays the mocked read response, for timeout tests
func WithReadDelay(d time.Duration) CharacteristicOption {
	return func(c *CharacteristicConfig) {
		c.readDelay = d
	}
}

// WithReadError makes the mocked read fail with err
func WithReadError(err error) CharacteristicOption {
	return func(c *CharacteristicConfig) {
		c.readErr = err
	}
}

// PeripheralDeviceBuilder builds mocked BLE devices with full service/characteristic support.
// The same profile can be materialized as a go-ble mock (Build) or as an in-memory
// device.Transport (BuildTransport).
type PeripheralDeviceBuilder struct {
	profile     DeviceProfileConfig
	dialErr     error
	discoverErr error

	client *mocks.MockClient
	device *mocks.MockDevice
}

// NewPeripheralDeviceBuilder creates a new peripheral device builder
func NewPeripheralDeviceBuilder() *PeripheralDeviceBuilder {
	return &PeripheralDeviceBuilder{
		profile: DeviceProfileConfig{
			Services: []ServiceConfig{},
		},
	}
}

// WithService adds a service to the device profile
func (b *PeripheralDeviceBuilder) WithService(uuid string) *PeripheralDeviceBuilder {
	b.profile.Services = append(b.profile.Services, ServiceConfig{
		UUID:            uuid,
		Characteristics: []CharacteristicConfig{},
	})
	return b
}

// WithCharacteristic adds a characteristic to the last added service
func (b *PeripheralDeviceBuilder) WithCharacteristic(uuid, properties string, value []byte, opts ...CharacteristicOption) *PeripheralDeviceBuilder {
	if len(b.profile.Services) == 0 {
		panic("WithCharacteristic: no service added yet, call WithService first")
	}

	char := CharacteristicConfig{
		UUID:       uuid,
		Properties: properties,
		Value:      value,
	}
	for _, opt := range opts {
		opt(&char)
	}

	last := len(b.profile.Services) - 1
	b.profile.Services[last].Characteristics = append(b.profile.Services[last].Characteristics, char)
	return b
}

// WithCharacteristicDiscoveryError makes characteristic discovery of the last added service fail
func (b *PeripheralDeviceBuilder) WithCharacteristicDiscoveryError(err error) *PeripheralDeviceBuilder {
	if len(b.profile.Services) == 0 {
		panic("WithCharacteristicDiscoveryError: no service added yet, call WithService first")
	}
	b.profile.Services[len(b.profile.Services)-1].discoverErr = err
	return b
}

// WithDialError makes connecting to the peripheral fail
func (b *PeripheralDeviceBuilder) WithDialError(err error) *PeripheralDeviceBuilder {
	b.dialErr = err
	return b
}

// WithServiceDiscoveryError makes service discovery fail
func (b *PeripheralDeviceBuilder) WithServiceDiscoveryError(err error) *PeripheralDeviceBuilder {
	b.discoverErr = err
	return b
}

// FromJSON fills the device profile from JSON
func (b *PeripheralDeviceBuilder) FromJSON(jsonStrFmt string, args ...interface{}) *PeripheralDeviceBuilder {
	jsonStr := fmt.Sprintf(jsonStrFmt, args...)

	var config DeviceProfileConfig
	if err := json.Unmarshal([]byte(jsonStr), &config); err != nil {
		panic(fmt.Sprintf("PeripheralDeviceBuilder.FromJSON: failed to unmarshal: %v", err))
	}

	b.profile = config
	return b
}

// GetServices returns the configured services
func (b *PeripheralDeviceBuilder) GetServices() []ServiceConfig {
	return b.profile.Services
}

// parseCharacteristicProperties converts a property string to device.Properties
func parseCharacteristicProperties(props string) device.Properties {
	if props == "" {
		return device.PropRead | device.PropWrite | device.PropNotify // default
	}
	parsed, ok := device.ParseProperties(props)
	if !ok {
		panic(fmt.Sprintf("unknown characteristic properties %q", props))
	}
	return parsed
}

// Build creates a mocked ble.Device with the configured profile.
// Services and characteristics get sequential ATT handles in declaration order.
func (b *PeripheralDeviceBuilder) Build() blelib.Device {
	mockDevice := &mocks.MockDevice{}
	mockClient := &mocks.MockClient{}

	handle := uint16(0x0001)
	var bleServices []*blelib.Service
	for _, svcConfig := range b.profile.Services {
		bleService := &blelib.Service{
			UUID:   blelib.MustParse(svcConfig.UUID),
			Handle: handle,
		}
		handle++

		var bleCharacteristics []*blelib.Characteristic
		for _, charConfig := range svcConfig.Characteristics {
			bleChar := &blelib.Characteristic{
				UUID:        blelib.MustParse(charConfig.UUID),
				Property:    blelib.Property(parseCharacteristicProperties(charConfig.Properties)), // go-ble uses the GATT bit values
				Handle:      handle,
				ValueHandle: handle + 1,
				Value:       charConfig.Value,
			}
			handle += 2
			bleCharacteristics = append(bleCharacteristics, bleChar)

			if bleChar.Property&blelib.CharRead != 0 {
				var call *mock.Call
				if charConfig.readErr != nil {
					call = mockClient.On("ReadCharacteristic", bleChar).Return(nil, charConfig.readErr)
				} else {
					call = mockClient.On("ReadCharacteristic", bleChar).Return(charConfig.Value, nil)
				}
				if charConfig.readDelay > 0 {
					call.After(charConfig.readDelay)
				}
			}
		}
		bleService.Characteristics = bleCharacteristics
		bleService.EndHandle = handle - 1
		bleServices = append(bleServices, bleService)

		if svcConfig.discoverErr != nil {
			mockClient.On("DiscoverCharacteristics", mock.Anything, bleService).Return(nil, svcConfig.discoverErr)
		} else {
			mockClient.On("DiscoverCharacteristics", mock.Anything, bleService).Return(bleCharacteristics, nil)
		}
	}

	if b.discoverErr != nil {
		mockClient.On("DiscoverServices", mock.Anything).Return(nil, b.discoverErr)
	} else {
		mockClient.On("DiscoverServices", mock.Anything).Return(bleServices, nil)
	}
	mockClient.On("CancelConnection").Return(nil)

	if b.dialErr != nil {
		mockDevice.On("Dial", mock.Anything, mock.Anything).Return(nil, b.dialErr)
	} else {
		mockDevice.On("Dial", mock.Anything, mock.Anything).Return(mockClient, nil)
	}
	mockDevice.On("Stop").Return(nil)

	b.client = mockClient
	b.device = mockDevice
	return mockDevice
}

// Client returns the mocked ble.Client of the last Build, for call assertions
func (b *PeripheralDeviceBuilder) Client() *mocks.MockClient {
	return b.client
}

// Device returns the mocked ble.Device of the last Build, for call assertions
func (b *PeripheralDeviceBuilder) Device() *mocks.MockDevice {
	return b.device
}

// BuildTransport materializes the profile as an in-memory device.Transport.
func (b *PeripheralDeviceBuilder) BuildTransport() *FakeTransport {
	t := &FakeTransport{ConnectErr: b.dialErr}

	peripheral := &FakePeripheral{
		servicesErr:  b.discoverErr,
		chars:        make(map[string][]device.Characteristic),
		charsErr:     make(map[string]error),
		values:       make(map[string][]byte),
		readErrs:     make(map[string]error),
		readDelays:   make(map[string]time.Duration),
		readCounters: make(map[string]int),
	}

	handle := uint16(0x0001)
	for _, svcConfig := range b.profile.Services {
		svcUUID := device.NormalizeUUID(svcConfig.UUID)
		svc := device.Service{UUID: svcUUID, KnownName: bledb.LookupService(svcUUID), Handle: handle}
		handle++
		peripheral.services = append(peripheral.services, svc)

		key := fakeKey(svcUUID, svc.Handle)
		peripheral.chars[key] = []device.Characteristic{}
		if svcConfig.discoverErr != nil {
			peripheral.charsErr[key] = svcConfig.discoverErr
		}

		for _, charConfig := range svcConfig.Characteristics {
			char := device.Characteristic{
				UUID:        device.NormalizeUUID(charConfig.UUID),
				KnownName:   bledb.LookupCharacteristic(charConfig.UUID),
				ServiceUUID: svcUUID,
				Handle:      handle,
				Properties:  parseCharacteristicProperties(charConfig.Properties),
			}
			handle += 2
			peripheral.chars[key] = append(peripheral.chars[key], char)

			charKey := fakeKey(char.UUID, char.Handle)
			peripheral.values[charKey] = charConfig.Value
			if charConfig.readErr != nil {
				peripheral.readErrs[charKey] = charConfig.readErr
			}
			if charConfig.readDelay > 0 {
				peripheral.readDelays[charKey] = charConfig.readDelay
			}
		}
	}

	t.peripheral = peripheral
	return t
}
