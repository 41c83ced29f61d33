package inspector

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/blinspect/internal/device"
)

const (
	DefaultConnectTimeout = 30 * time.Second
	DefaultReadTimeout    = 5 * time.Second

	// DefaultReadLimit caps the number of value bytes reported per characteristic
	DefaultReadLimit = 512
)

// Progress phases reported by InspectDevice
const (
	PhaseConnecting = "Connecting"
	PhaseConnected  = "Connected"
	PhaseProcessing = "Processing results"
	PhaseFailed     = "Failed"
)

// ProgressCallback is called when the inspection phase changes
type ProgressCallback func(phase string)

// InspectOptions defines options for inspecting a BLE device profile
type InspectOptions struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration

	// ReadLimit truncates reported values to this many bytes; zero or less means DefaultReadLimit
	ReadLimit int

	// SkipReads lists the GATT tree without reading any value
	SkipReads bool
}

// DefaultInspectOptions returns the options used when none are given
func DefaultInspectOptions() *InspectOptions {
	return &InspectOptions{
		ConnectTimeout: DefaultConnectTimeout,
		ReadTimeout:    DefaultReadTimeout,
		ReadLimit:      DefaultReadLimit,
	}
}

// InspectCallback processes a connected peripheral and produces output of type R
type InspectCallback[R any] func(device.Peripheral) (R, error)

// InspectDevice connects to a peripheral through transport and executes the callback with it.
// The peripheral is disconnected when the callback returns; a disconnect failure is logged only.
// A connection failure is returned as *ConnectError and the callback is not run.
func InspectDevice[R any](ctx context.Context, transport device.Transport, address string, opts *InspectOptions, logger *logrus.Logger, progressCallback ProgressCallback, callback InspectCallback[R]) (R, error) {
	var zero R
	if opts == nil {
		opts = DefaultInspectOptions()
	}
	if logger == nil {
		logger = logrus.New()
	}
	if progressCallback == nil {
		progressCallback = func(string) {}
	}

	progressCallback(PhaseConnecting)

	connectOpts := &device.ConnectOptions{
		ConnectTimeout: opts.ConnectTimeout,
		ReadTimeout:    opts.ReadTimeout,
	}
	peripheral, err := transport.Connect(ctx, address, connectOpts)
	if err != nil {
		progressCallback(PhaseFailed)
		return zero, &ConnectError{Address: address, Err: err}
	}

	progressCallback(PhaseConnected)

	defer func(p device.Peripheral) {
		if err := p.Disconnect(); err != nil {
			logger.WithError(err).Error("failed to disconnect device")
		}
	}(peripheral)

	progressCallback(PhaseProcessing)

	return callback(peripheral)
}

// Inspect connects to address, walks the whole GATT tree into sink and disconnects.
func Inspect(ctx context.Context, transport device.Transport, address string, opts *InspectOptions, logger *logrus.Logger, progressCallback ProgressCallback, sink Sink) error {
	if opts == nil {
		opts = DefaultInspectOptions()
	}
	_, err := InspectDevice(ctx, transport, address, opts, logger, progressCallback, func(p device.Peripheral) (struct{}, error) {
		return struct{}{}, Walk(ctx, p, opts, sink, logger)
	})
	return err
}

// Walk enumerates every service and characteristic of p in transport order and feeds them to sink.
// Readable characteristics are read exactly once, others never. The first failure stops the walk
// and is returned as *EnumerationError or *ReadError; the sink is closed only after a complete walk.
func Walk(ctx context.Context, p device.Peripheral, opts *InspectOptions, sink Sink, logger *logrus.Logger) error {
	if opts == nil {
		opts = DefaultInspectOptions()
	}
	if logger == nil {
		logger = logrus.New()
	}
	address := p.Address()

	limit := opts.ReadLimit
	if limit <= 0 {
		limit = DefaultReadLimit
	}

	if err := sink.Device(address); err != nil {
		return err
	}

	services, err := p.Services(ctx)
	if err != nil {
		return &EnumerationError{Address: address, Err: err}
	}
	logger.WithFields(logrus.Fields{
		"address":  address,
		"services": len(services),
	}).Debug("Services discovered")

	for _, svc := range services {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sink.Service(svc); err != nil {
			return err
		}

		chars, err := p.Characteristics(ctx, svc)
		if err != nil {
			return &EnumerationError{Address: address, ServiceUUID: svc.UUID, Err: err}
		}

		for _, char := range chars {
			value, err := readValue(ctx, p, char, opts.SkipReads, limit, logger)
			if err != nil {
				return &ReadError{
					Address:            address,
					ServiceUUID:        svc.UUID,
					CharacteristicUUID: char.UUID,
					Err:                err,
				}
			}
			if err := sink.Characteristic(char, value); err != nil {
				return err
			}
		}
	}

	return sink.Close()
}

func readValue(ctx context.Context, p device.Peripheral, char device.Characteristic, skip bool, limit int, logger *logrus.Logger) (Value, error) {
	if skip || !char.Properties.CanRead() {
		return Value{}, nil
	}

	data, err := p.Read(ctx, char)
	if err != nil {
		return Value{}, err
	}

	v := Value{Data: data, Size: len(data), Read: true}
	if len(data) > limit {
		v.Data = data[:limit]
		logger.WithFields(logrus.Fields{
			"service_uuid": char.ServiceUUID,
			"char_uuid":    char.UUID,
			"size":         len(data),
			"limit":        limit,
		}).Debug("Characteristic value truncated")
	}
	return v, nil
}
