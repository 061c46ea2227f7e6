// Package memgraphics provides a CPU-backed implementation of the
// graphics ports. It stands in for a real GPU device in tests and in the
// CLI demo: CopyToBuffer is the "copy command", and an optional map
// latency models the window between recording a copy and its execution,
// during which TryMap fails.
package memgraphics

import (
	"fmt"
	"sync"
	"time"

	"github.com/user/framecast/pkg/ports"
)

// Device implements ports.GraphicsDevice with heap-allocated buffers.
type Device struct {
	// MapLatency is how long after CopyToBuffer a buffer stays
	// unmappable. Zero means copies complete synchronously.
	MapLatency time.Duration
}

// New creates a device whose copies complete synchronously.
func New() *Device {
	return &Device{}
}

// NewWithLatency creates a device whose buffers become readable latency
// after each copy, like a real readback.
func NewWithLatency(latency time.Duration) *Device {
	return &Device{MapLatency: latency}
}

// NewReadbackBuffer allocates a size-byte buffer.
func (d *Device) NewReadbackBuffer(size int) (ports.PixelBuffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("memgraphics: invalid buffer size %d", size)
	}
	return &buffer{data: make([]byte, size)}, nil
}

// CopyToBuffer copies src into dst and arms the map latency.
func (d *Device) CopyToBuffer(src []byte, dst ports.PixelBuffer) error {
	b, ok := dst.(*buffer)
	if !ok {
		return fmt.Errorf("memgraphics: foreign buffer %T", dst)
	}
	if len(src) != len(b.data) {
		return fmt.Errorf("memgraphics: copy length %d into buffer of %d", len(src), len(b.data))
	}
	b.mu.Lock()
	copy(b.data, src)
	b.readableAt = time.Now().Add(d.MapLatency)
	b.mu.Unlock()
	return nil
}

// buffer implements ports.PixelBuffer.
type buffer struct {
	mu         sync.Mutex
	data       []byte
	readableAt time.Time
}

// Size returns the buffer capacity.
func (b *buffer) Size() int { return len(b.data) }

// TryMap returns the contents once the simulated copy has completed.
func (b *buffer) TryMap() ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if time.Now().Before(b.readableAt) {
		return nil, false
	}
	return b.data, true
}

// Unmap is a no-op; the backing memory never moves.
func (b *buffer) Unmap() {}

var _ ports.GraphicsDevice = (*Device)(nil)
