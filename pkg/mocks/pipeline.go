package mocks

import (
	"sync"
	"time"

	"github.com/user/framecast/pkg/ports"
)

// EncodePipeline is a mock implementation of ports.EncodePipeline.
//
// The default Run waits for Play (or Close), then drives the registered
// pull callback in a loop until end-of-stream, recording every pulled
// frame and timestamp. Set RunFunc to override.
type EncodePipeline struct {
	SetPullFunc func(fn ports.PullFunc)
	PlayFunc    func() error
	RunFunc     func() error
	CloseFunc   func() error

	// FrameSize is the scratch buffer length the default Run hands to
	// the pull callback.
	FrameSize int

	// Recorded state for verification.
	PlayCalled  bool
	CloseCalled bool

	mu         sync.Mutex
	pull       ports.PullFunc
	Timestamps []time.Duration
	Frames     [][]byte

	playCh    chan struct{}
	playOnce  sync.Once
	closeCh   chan struct{}
	closeOnce sync.Once
}

// NewEncodePipeline creates a mock pipeline pulling frames of frameSize
// bytes.
func NewEncodePipeline(frameSize int) *EncodePipeline {
	return &EncodePipeline{
		FrameSize: frameSize,
		playCh:    make(chan struct{}),
		closeCh:   make(chan struct{}),
	}
}

func (m *EncodePipeline) SetPull(fn ports.PullFunc) {
	m.mu.Lock()
	m.pull = fn
	m.mu.Unlock()
	if m.SetPullFunc != nil {
		m.SetPullFunc(fn)
	}
}

func (m *EncodePipeline) Play() error {
	m.mu.Lock()
	m.PlayCalled = true
	m.mu.Unlock()
	m.playOnce.Do(func() { close(m.playCh) })
	if m.PlayFunc != nil {
		return m.PlayFunc()
	}
	return nil
}

func (m *EncodePipeline) Run() error {
	if m.RunFunc != nil {
		return m.RunFunc()
	}

	select {
	case <-m.playCh:
	case <-m.closeCh:
		// Both may be pending; a played session still drains.
		select {
		case <-m.playCh:
		default:
			return nil
		}
	}

	m.mu.Lock()
	pull := m.pull
	m.mu.Unlock()
	if pull == nil {
		return nil
	}

	dst := make([]byte, m.FrameSize)
	for {
		pts, eos := pull(dst)
		if eos {
			return nil
		}
		m.mu.Lock()
		m.Timestamps = append(m.Timestamps, pts)
		m.Frames = append(m.Frames, append([]byte(nil), dst...))
		m.mu.Unlock()
	}
}

func (m *EncodePipeline) Close() error {
	m.mu.Lock()
	m.CloseCalled = true
	m.mu.Unlock()
	m.closeOnce.Do(func() { close(m.closeCh) })
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// PulledFrames returns a snapshot of the recorded frames.
func (m *EncodePipeline) PulledFrames() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.Frames...)
}

// PulledTimestamps returns a snapshot of the recorded timestamps.
func (m *EncodePipeline) PulledTimestamps() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.Timestamps...)
}

var _ ports.EncodePipeline = (*EncodePipeline)(nil)
