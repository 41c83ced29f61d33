package goble

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/blinspect/internal/bledb"
	"github.com/srg/blinspect/internal/device"
	"github.com/srg/blinspect/internal/groutine"
)

const (
	// DefaultConnectTimeout bounds dialing and each discovery round trip
	DefaultConnectTimeout = 30 * time.Second

	// DefaultReadTimeout is the default timeout for characteristic read operations.
	// This prevents indefinite blocking if a device becomes unresponsive during a read.
	DefaultReadTimeout = 5 * time.Second
)

// DeviceFactory creates ble.Device instances (can be overridden in tests)
//
//nolint:revive // DeviceFactory name is intentional for test mocking
var DeviceFactory = newPlatformDevice

// Transport dials BLE peripherals through the platform go-ble host stack.
type Transport struct {
	logger *logrus.Logger
}

// NewTransport creates a go-ble backed device.Transport.
func NewTransport(logger *logrus.Logger) *Transport {
	if logger == nil {
		logger = logrus.New()
	}
	return &Transport{logger: logger}
}

// Connect creates the host device, dials address and returns the live connection.
// The host device is stopped again if dialing fails.
func (t *Transport) Connect(ctx context.Context, address string, opts *device.ConnectOptions) (device.Peripheral, error) {
	addr, err := device.ValidateAddress(address)
	if err != nil {
		t.logger.WithField("address", address).Error("Connection attempt with invalid address")
		return nil, err
	}

	if opts == nil {
		opts = &device.ConnectOptions{}
	}
	connectTimeout := opts.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}

	t.logger.WithFields(logrus.Fields{
		"address": addr,
		"timeout": connectTimeout,
	}).Info("Connecting to BLE device...")

	// Create a BLE device using the factory (allows for mocking in tests)
	dev, err := DeviceFactory()
	if err != nil {
		t.logger.WithField("error", err).Error("Failed to create BLE device")
		return nil, fmt.Errorf("failed to create BLE device: %w", NormalizeError(err))
	}

	connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	t.logger.WithField("address", addr).Debug("Dialing BLE device...")
	client, err := dev.Dial(connCtx, ble.NewAddr(addr))
	if err != nil {
		t.logger.WithFields(logrus.Fields{
			"address": addr,
			"error":   err,
		}).Error("Failed to dial BLE device")

		if stopErr := dev.Stop(); stopErr != nil {
			t.logger.WithField("stop_error", stopErr).Warn("Failed to stop BLE device after dial failure")
		}
		if ctx.Err() == nil && errors.Is(connCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: no connection after %v: %v", device.ErrTimeout, connectTimeout, err)
		}
		return nil, fmt.Errorf("dial failed: %w", NormalizeError(err))
	}

	t.logger.WithField("address", addr).Info("BLE device connected")

	return &BLEConnection{
		address:          addr,
		device:           dev,
		client:           client,
		logger:           t.logger,
		discoveryTimeout: connectTimeout,
		readTimeout:      readTimeout,
		services:         hashmap.New[string, *ble.Service](),
		characteristics:  hashmap.New[string, *ble.Characteristic](),
	}, nil
}

// BLEConnection is a live go-ble connection answering explicit discovery and read queries.
// Discovered go-ble objects are indexed by UUID and handle so that plain device records
// can be resolved back to library handles.
type BLEConnection struct {
	address          string
	device           ble.Device
	client           ble.Client
	logger           *logrus.Logger
	connMutex        sync.RWMutex
	discoveryTimeout time.Duration
	readTimeout      time.Duration

	services        *hashmap.Map[string, *ble.Service]
	characteristics *hashmap.Map[string, *ble.Characteristic]
}

func attributeKey(uuid string, handle uint16) string {
	return fmt.Sprintf("%s@%04x", uuid, handle)
}

// Address returns the address the connection was dialed with.
func (c *BLEConnection) Address() string {
	return c.address
}

// activeClient returns the go-ble client or ErrNotConnected after Disconnect.
func (c *BLEConnection) activeClient() (ble.Client, error) {
	c.connMutex.RLock()
	defer c.connMutex.RUnlock()
	if c.client == nil {
		return nil, device.ErrNotConnected
	}
	return c.client, nil
}

// Services discovers all primary services in the order the peripheral reports them.
func (c *BLEConnection) Services(ctx context.Context) ([]device.Service, error) {
	client, err := c.activeClient()
	if err != nil {
		return nil, fmt.Errorf("discover services on %s: %w", c.address, err)
	}

	c.logger.WithField("address", c.address).Debug("Discovering services...")
	bleServices, err := groutine.Call(ctx, "ble-discover-services", c.discoveryTimeout, func() ([]*ble.Service, error) {
		return client.DiscoverServices(nil)
	})
	if err != nil {
		return nil, c.wrapCallError(err, "discovering services")
	}

	result := make([]device.Service, 0, len(bleServices))
	for _, s := range bleServices {
		rawUUID := s.UUID.String()
		svc := device.Service{
			UUID:      device.NormalizeUUID(rawUUID),
			KnownName: bledb.LookupService(rawUUID),
			Handle:    s.Handle,
		}
		c.services.Set(attributeKey(svc.UUID, svc.Handle), s)
		c.logger.WithField("service_uuid", svc.UUID).Debug("Found service UUID")
		result = append(result, svc)
	}
	return result, nil
}

// Characteristics discovers all characteristics of svc in the order the peripheral reports them.
// svc must come from a previous Services call on this connection.
func (c *BLEConnection) Characteristics(ctx context.Context, svc device.Service) ([]device.Characteristic, error) {
	client, err := c.activeClient()
	if err != nil {
		return nil, fmt.Errorf("discover characteristics of service %s: %w", svc.UUID, err)
	}

	bleService, ok := c.services.Get(attributeKey(svc.UUID, svc.Handle))
	if !ok {
		return nil, &device.NotFoundError{Resource: "service", UUIDs: []string{svc.UUID}}
	}

	bleChars, err := groutine.Call(ctx, "ble-discover-characteristics", c.discoveryTimeout, func() ([]*ble.Characteristic, error) {
		return client.DiscoverCharacteristics(nil, bleService)
	})
	if err != nil {
		return nil, c.wrapCallError(err, fmt.Sprintf("discovering characteristics of service %s", svc.UUID))
	}

	result := make([]device.Characteristic, 0, len(bleChars))
	for _, ch := range bleChars {
		rawUUID := ch.UUID.String()
		char := device.Characteristic{
			UUID:        device.NormalizeUUID(rawUUID),
			KnownName:   bledb.LookupCharacteristic(rawUUID),
			ServiceUUID: svc.UUID,
			Handle:      ch.Handle,
			Properties:  NewProperties(ch.Property),
		}
		c.characteristics.Set(attributeKey(char.UUID, char.Handle), ch)
		c.logger.WithFields(logrus.Fields{
			"service_uuid": svc.UUID,
			"char_uuid":    char.UUID,
		}).Debug("Found characteristic UUID")
		result = append(result, char)
	}
	return result, nil
}

// Read reads the current value of char, bounded by the connection read timeout and ctx.
func (c *BLEConnection) Read(ctx context.Context, char device.Characteristic) ([]byte, error) {
	if !char.Properties.CanRead() {
		return nil, fmt.Errorf("characteristic %s does not support read operations: %w", char.UUID, device.ErrUnsupported)
	}

	bleChar, ok := c.characteristics.Get(attributeKey(char.UUID, char.Handle))
	if !ok {
		return nil, &device.NotFoundError{Resource: "characteristic", UUIDs: []string{char.ServiceUUID, char.UUID}}
	}

	client, err := c.activeClient()
	if err != nil {
		return nil, fmt.Errorf("read characteristic %s: %w", char.UUID, err)
	}

	data, err := groutine.Call(ctx, "ble-read-characteristic", c.readTimeout, func() ([]byte, error) {
		return client.ReadCharacteristic(bleChar)
	})
	if err != nil {
		if errors.Is(err, groutine.ErrTimedOut) {
			return nil, fmt.Errorf("%w: reading characteristic %s after %v", device.ErrTimeout, char.UUID, c.readTimeout)
		}
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read characteristic %s: %w", char.UUID, NormalizeError(err))
	}
	return data, nil
}

func (c *BLEConnection) wrapCallError(err error, op string) error {
	if errors.Is(err, groutine.ErrTimedOut) {
		return fmt.Errorf("%w: %s after %v", device.ErrTimeout, op, c.discoveryTimeout)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%s: %w", op, NormalizeError(err))
}

// Disconnect cancels the connection and stops the host device. Calling it more than once is a no-op.
func (c *BLEConnection) Disconnect() error {
	c.connMutex.Lock()
	client := c.client
	dev := c.device
	c.client = nil
	c.device = nil
	c.connMutex.Unlock()

	if client == nil {
		c.logger.Debug("Disconnect called but already disconnected")
		return nil
	}

	c.logger.WithField("address", c.address).Info("Disconnecting BLE device...")

	var errs []error
	if err := client.CancelConnection(); err != nil {
		errs = append(errs, fmt.Errorf("cancel connection: %w", err))
	}
	if dev != nil {
		if err := dev.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop device: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		c.logger.WithField("error", err).Warn("BLE device disconnected with errors")
		return err
	}
	c.logger.Info("BLE device disconnected successfully")
	return nil
}
