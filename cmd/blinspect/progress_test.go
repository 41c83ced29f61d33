package main

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// syncBuffer guards a bytes.Buffer shared with the progress goroutine
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestProgressPrinter_StopPhase(t *testing.T) {
	out := &syncBuffer{}
	p := NewProgressPrinter(out, "Inspecting device aa:bb:cc:dd:ee:ff", "Connecting", "Processing results")
	p.Start()

	callback := p.Callback()
	callback("Connected")
	time.Sleep(2 * progressUpdateInterval)
	callback("Processing results")

	got := out.String()
	assert.True(t, strings.HasPrefix(got, "\rInspecting device aa:bb:cc:dd:ee:ff (Connecting...)"), "unexpected output: %q", got)
	assert.Contains(t, got, "(Connected...)")
	assert.True(t, strings.HasSuffix(got, clearLineSequence), "stop phase MUST clear the line")

	// Further stops are no-ops
	p.Stop()
	assert.Equal(t, got, out.String())
}

func TestProgressPrinter_StartTwicePanics(t *testing.T) {
	p := NewProgressPrinter(&syncBuffer{}, "x", "Connecting")
	p.Start()
	defer p.Stop()

	assert.Panics(t, p.Start)
}
