package mocks

import (
	"sync"

	"github.com/user/framecast/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	RawFrames   map[int][]byte
	SessionJSON []byte
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:   enabled,
		RawFrames: make(map[int][]byte),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveRawFrame(index int, format ports.PixelFormat, width, height int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RawFrames[index] = append([]byte(nil), data...)
	return nil
}

func (m *DebugSink) SaveSessionJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SessionJSON = append([]byte(nil), data...)
	return nil
}

// RawFrameCount returns the number of saved frames.
func (m *DebugSink) RawFrameCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.RawFrames)
}

var _ ports.DebugSink = (*DebugSink)(nil)
