package mocks

import (
	"fmt"
	"sync"

	"github.com/user/framecast/pkg/ports"
)

// GraphicsDevice is a mock implementation of ports.GraphicsDevice whose
// buffers are plain memory and map instantly.
type GraphicsDevice struct {
	NewReadbackBufferFunc func(size int) (ports.PixelBuffer, error)
	CopyToBufferFunc      func(src []byte, dst ports.PixelBuffer) error

	// Recorded state for verification.
	mu        sync.Mutex
	Allocated []int
	Copies    int
}

func (m *GraphicsDevice) NewReadbackBuffer(size int) (ports.PixelBuffer, error) {
	m.mu.Lock()
	m.Allocated = append(m.Allocated, size)
	m.mu.Unlock()
	if m.NewReadbackBufferFunc != nil {
		return m.NewReadbackBufferFunc(size)
	}
	return &PixelBuffer{Data: make([]byte, size), Readable: true}, nil
}

func (m *GraphicsDevice) CopyToBuffer(src []byte, dst ports.PixelBuffer) error {
	m.mu.Lock()
	m.Copies++
	m.mu.Unlock()
	if m.CopyToBufferFunc != nil {
		return m.CopyToBufferFunc(src, dst)
	}
	b, ok := dst.(*PixelBuffer)
	if !ok {
		return fmt.Errorf("mocks: foreign buffer %T", dst)
	}
	if len(src) != len(b.Data) {
		return fmt.Errorf("mocks: copy length %d into buffer of %d", len(src), len(b.Data))
	}
	b.mu.Lock()
	copy(b.Data, src)
	b.mu.Unlock()
	return nil
}

// PixelBuffer is a mock implementation of ports.PixelBuffer. Readable
// controls whether TryMap succeeds; MapAttempts counts calls.
type PixelBuffer struct {
	mu          sync.Mutex
	Data        []byte
	Readable    bool
	MapAttempts int
}

func (b *PixelBuffer) Size() int {
	return len(b.Data)
}

func (b *PixelBuffer) TryMap() ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.MapAttempts++
	if !b.Readable {
		return nil, false
	}
	return b.Data, true
}

func (b *PixelBuffer) Unmap() {}

// SetReadable flips map availability, emulating GPU copy completion.
func (b *PixelBuffer) SetReadable(ok bool) {
	b.mu.Lock()
	b.Readable = ok
	b.mu.Unlock()
}

var (
	_ ports.GraphicsDevice = (*GraphicsDevice)(nil)
	_ ports.PixelBuffer    = (*PixelBuffer)(nil)
)
