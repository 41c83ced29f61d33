package groutine

import (
	"context"
	"errors"
	"runtime/pprof"
	"time"
)

// ErrTimedOut is returned by Call when the timeout elapses before fn returns.
var ErrTimedOut = errors.New("timed out")

// Go starts a goroutine with a name, optional parent context
// Example usage:
//
//	groutine.Go(ctx, "ble-read", func(ctx context.Context) {
//	    // work
//	})
//
// If parentCtx is nil, context.Background() is used.
func Go(parentCtx context.Context, name string, fn func(ctx context.Context)) {
	if parentCtx == nil {
		parentCtx = context.Background()
	}

	labels := pprof.Labels("goroutine_name", name)

	go pprof.Do(parentCtx, labels, fn)
}

// Call runs a blocking fn on a named goroutine and waits for whichever comes first:
// its result, the timeout (ErrTimedOut) or ctx cancellation (ctx.Err()).
// A zero timeout waits without a deadline.
//
// When Call gives up, fn keeps running until the underlying call returns; its result
// is dropped into a buffered channel so the goroutine never blocks.
func Call[T any](ctx context.Context, name string, timeout time.Duration, fn func() (T, error)) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)

	Go(ctx, name, func(context.Context) {
		v, err := fn()
		done <- result{value: v, err: err}
	})

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	var zero T
	select {
	case r := <-done:
		return r.value, r.err
	case <-expired:
		return zero, ErrTimedOut
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
