package testutils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/srg/blinspect/internal/device"
)

func fakeKey(uuid string, handle uint16) string {
	return fmt.Sprintf("%s@%04x", uuid, handle)
}

// FakeTransport is an in-memory device.Transport serving a scripted peripheral.
// It records every call so tests can assert on the exact interaction.
type FakeTransport struct {
	ConnectErr error

	mu         sync.Mutex
	peripheral *FakePeripheral
	connects   []string
}

// Connect returns the scripted peripheral, or ConnectErr.
// A FakeTransport not built by PeripheralDeviceBuilder.BuildTransport fails with device.ErrNotInitialized.
func (t *FakeTransport) Connect(_ context.Context, address string, _ *device.ConnectOptions) (device.Peripheral, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.connects = append(t.connects, address)
	if t.ConnectErr != nil {
		return nil, t.ConnectErr
	}
	if t.peripheral == nil {
		return nil, fmt.Errorf("%w: fake transport has no peripheral, use PeripheralDeviceBuilder.BuildTransport", device.ErrNotInitialized)
	}
	t.peripheral.mu.Lock()
	t.peripheral.address = address
	t.peripheral.connected = true
	t.peripheral.mu.Unlock()
	return t.peripheral, nil
}

// Connects returns the addresses Connect was called with
func (t *FakeTransport) Connects() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.connects...)
}

// Peripheral returns the scripted peripheral
func (t *FakeTransport) Peripheral() *FakePeripheral {
	return t.peripheral
}

// FakePeripheral is the device.Peripheral served by FakeTransport
type FakePeripheral struct {
	mu           sync.Mutex
	address      string
	connected    bool
	services     []device.Service
	servicesErr  error
	chars        map[string][]device.Characteristic
	charsErr     map[string]error
	values       map[string][]byte
	readErrs     map[string]error
	readDelays   map[string]time.Duration
	readCounters map[string]int
	disconnects  int
}

func (p *FakePeripheral) Address() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.address
}

func (p *FakePeripheral) Services(_ context.Context) ([]device.Service, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return nil, device.ErrNotConnected
	}
	if p.servicesErr != nil {
		return nil, p.servicesErr
	}
	return append([]device.Service(nil), p.services...), nil
}

func (p *FakePeripheral) Characteristics(_ context.Context, svc device.Service) ([]device.Characteristic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return nil, device.ErrNotConnected
	}
	key := fakeKey(svc.UUID, svc.Handle)
	if err := p.charsErr[key]; err != nil {
		return nil, err
	}
	chars, ok := p.chars[key]
	if !ok {
		return nil, &device.NotFoundError{Resource: "service", UUIDs: []string{svc.UUID}}
	}
	return append([]device.Characteristic(nil), chars...), nil
}

func (p *FakePeripheral) Read(ctx context.Context, char device.Characteristic) ([]byte, error) {
	key := fakeKey(char.UUID, char.Handle)

	p.mu.Lock()
	p.readCounters[key]++
	connected := p.connected
	delay := p.readDelays[key]
	err := p.readErrs[key]
	value, ok := p.values[key]
	p.mu.Unlock()

	if !connected {
		return nil, device.ErrNotConnected
	}
	if !ok {
		return nil, &device.NotFoundError{Resource: "characteristic", UUIDs: []string{char.ServiceUUID, char.UUID}}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), value...), nil
}

func (p *FakePeripheral) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disconnects++
	p.connected = false
	return nil
}

// ReadCount returns how many times the characteristic with uuid was read
func (p *FakePeripheral) ReadCount(uuid string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	uuid = device.NormalizeUUID(uuid)
	total := 0
	for key, n := range p.readCounters {
		if len(key) > len(uuid) && key[:len(uuid)] == uuid && key[len(uuid)] == '@' {
			total += n
		}
	}
	return total
}

// TotalReads returns the number of Read calls across all characteristics
func (p *FakePeripheral) TotalReads() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := 0
	for _, n := range p.readCounters {
		total += n
	}
	return total
}

// Disconnects returns how many times Disconnect was called
func (p *FakePeripheral) Disconnects() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disconnects
}
