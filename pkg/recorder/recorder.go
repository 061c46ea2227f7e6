package recorder

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/framecast/pkg/ports"
)

// Options fixes the session parameters at construction. None are mutable
// at runtime.
type Options struct {
	Format    ports.PixelFormat
	Width     int
	Height    int
	FrameRate float64

	// PoolDepth is the number of buffers in circulation. Low values
	// favor latency, high values absorb producer/consumer rate mismatch.
	// Defaults to 5.
	PoolDepth int

	// MapTimeout bounds the consumer's wait for a buffer to become
	// CPU-readable after the GPU copy. On timeout the frame is dropped
	// instead of pegging a core. Defaults to 500ms.
	MapTimeout time.Duration

	// MapBackoff is the initial sleep between map attempts, doubled up
	// to 2ms. Defaults to 50µs.
	MapBackoff time.Duration

	// Sink optionally receives raw frames and the session summary for
	// debugging. nil disables debug output.
	Sink ports.DebugSink
}

// withDefaults fills zero fields with defaults.
func (o Options) withDefaults() Options {
	if o.PoolDepth == 0 {
		o.PoolDepth = 5
	}
	if o.MapTimeout == 0 {
		o.MapTimeout = 500 * time.Millisecond
	}
	if o.MapBackoff == 0 {
		o.MapBackoff = 50 * time.Microsecond
	}
	return o
}

// validate reports setup errors. Dimension and format checks happen here,
// once, never per frame.
func (o Options) validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("recorder: invalid dimensions %dx%d", o.Width, o.Height)
	}
	if o.Format.Channels() == 0 {
		return fmt.Errorf("recorder: unknown pixel format %d", int(o.Format))
	}
	if o.FrameRate <= 0 {
		return fmt.Errorf("recorder: invalid frame rate %g", o.FrameRate)
	}
	if o.PoolDepth < 1 {
		return fmt.Errorf("recorder: pool depth must be >= 1, got %d", o.PoolDepth)
	}
	return nil
}

// frameSize returns the byte length of one frame.
func (o Options) frameSize() int {
	return o.Width * o.Height * o.Format.Channels()
}

// Stats is a snapshot of session counters.
type Stats struct {
	State State
	// Submitted counts buffers the producer handed in via ReturnBuffer.
	Submitted uint64
	// Encoded counts frames delivered to the encode pipeline.
	Encoded uint64
	// Dropped counts frames discarded because the buffer never became
	// CPU-readable within MapTimeout.
	Dropped uint64
	Pool    PoolCounts
}

// Recorder is the frame-handoff session: buffer pool, producer API,
// consumer pull adapter and lifecycle controller. One recorder produces
// one output file and is not reusable after Close.
//
// The producer methods (Play, Stop, NextBuffer, ReturnBuffer) are safe to
// call from the render loop. Close joins the encoder goroutine and must
// not be called from the pull callback.
type Recorder struct {
	opts Options
	pool *bufferPool
	pipe ports.EncodePipeline
	log  ports.Logger

	state   atomic.Int32
	playing atomic.Bool
	closed  atomic.Bool

	shutdown     chan struct{}
	shutdownOnce sync.Once

	// frameIndex is touched only by the consumer goroutine.
	frameIndex uint64

	submitted atomic.Uint64
	encoded   atomic.Uint64
	dropped   atomic.Uint64

	done   chan struct{}
	runErr error
}

// New builds a session: allocates the buffer pool, registers the pull
// callback on the encode pipeline and starts the pipeline's event loop
// on its own goroutine. The pipeline stays idle until Play.
func New(device ports.GraphicsDevice, pipe ports.EncodePipeline, opts Options, log ports.Logger) (*Recorder, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	pool, err := newBufferPool(device, opts.PoolDepth, opts.frameSize())
	if err != nil {
		return nil, err
	}

	r := &Recorder{
		opts:     opts,
		pool:     pool,
		pipe:     pipe,
		log:      log.WithComponent("recorder"),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	r.state.Store(int32(StateIdle))

	pipe.SetPull(r.pull)
	go func() {
		defer close(r.done)
		r.runErr = pipe.Run()
		if r.runErr != nil {
			r.state.Store(int32(StateFailed))
			r.log.Error("Encode pipeline failed: %s", r.runErr)
		}
	}()

	r.log.Debug("Session ready: %dx%d %s at %g fps, pool depth %d",
		opts.Width, opts.Height, opts.Format, opts.FrameRate, opts.PoolDepth)
	return r, nil
}

// Play transitions the session to recording and starts the encoder
// consuming. Idempotent; a no-op while already recording.
func (r *Recorder) Play() error {
	if r.closed.Load() {
		return ErrClosed
	}
	if !r.state.CompareAndSwap(int32(StateIdle), int32(StateRecording)) {
		switch State(r.state.Load()) {
		case StateRecording:
			return nil
		case StateFailed:
			return fmt.Errorf("recorder: pipeline failed: %w", r.runErr)
		default:
			return ErrStopped
		}
	}
	if err := r.pipe.Play(); err != nil {
		r.state.Store(int32(StateFailed))
		return fmt.Errorf("recorder: start pipeline: %w", err)
	}
	r.playing.Store(true)
	r.log.Info("Recording started")
	return nil
}

// Stop signals the encoder to drain in-flight frames and finalize.
// Non-blocking and idempotent. Subsequent NextBuffer calls return nil.
func (r *Recorder) Stop() error {
	if r.closed.Load() {
		return ErrClosed
	}
	r.playing.Store(false)
	r.state.CompareAndSwap(int32(StateIdle), int32(StateStopping))
	if r.state.CompareAndSwap(int32(StateRecording), int32(StateStopping)) {
		r.log.Info("Recording stopping, draining in-flight frames")
	}
	r.shutdownOnce.Do(func() { close(r.shutdown) })
	return nil
}

// NextBuffer returns a buffer the render loop should copy the current
// frame into, or nil when not recording or when every buffer is in
// flight. Both are normal; the caller skips the GPU copy entirely.
// Allocation-free and non-blocking.
func (r *Recorder) NextBuffer() *FrameBuffer {
	if !r.playing.Load() {
		return nil
	}
	return r.pool.acquireFree()
}

// ReturnBuffer hands a filled buffer back after the GPU copy into it has
// completed. Returning a buffer whose copy is still executing races the
// consumer's CPU read and corrupts the frame. Returning one into a
// closed session panics; the consumer that would recycle it is gone.
func (r *Recorder) ReturnBuffer(b *FrameBuffer) {
	if b == nil {
		return
	}
	if r.closed.Load() {
		panic(fmt.Sprintf("recorder: ReturnBuffer(slot %d) after Close", b.slot))
	}
	r.submitted.Add(1)
	r.pool.submitFilled(b)
}

// Close stops the session if needed, joins the encoder goroutine and
// surfaces any session-fatal pipeline error. It may be called exactly
// once, including immediately after construction without ever playing.
// Calling it from the pull callback would deadlock.
func (r *Recorder) Close() error {
	if r.closed.Swap(true) {
		return ErrClosed
	}
	r.playing.Store(false)
	r.shutdownOnce.Do(func() { close(r.shutdown) })
	// Unblocks the event loop if Play was never called. Never interrupts
	// a frame mid-encode. runErr may not be read before the join below.
	closeErr := r.pipe.Close()
	<-r.done

	if r.runErr != nil {
		r.state.Store(int32(StateFailed))
		return fmt.Errorf("recorder: encode pipeline: %w", r.runErr)
	}
	if closeErr != nil {
		r.log.Warn("Pipeline close: %s", closeErr)
	}
	r.state.Store(int32(StateClosed))
	r.log.Info("Session closed, %d frames encoded", r.encoded.Load())
	return nil
}

// State returns the current lifecycle state.
func (r *Recorder) State() State {
	return State(r.state.Load())
}

// Stats returns a snapshot of the session counters.
func (r *Recorder) Stats() Stats {
	return Stats{
		State:     r.State(),
		Submitted: r.submitted.Load(),
		Encoded:   r.encoded.Load(),
		Dropped:   r.dropped.Load(),
		Pool:      r.pool.Counts(),
	}
}

// summaryJSON renders the session summary for the debug sink.
func (r *Recorder) summaryJSON() []byte {
	s := r.Stats()
	data, _ := json.MarshalIndent(map[string]any{
		"state":     s.State.String(),
		"submitted": s.Submitted,
		"encoded":   s.Encoded,
		"dropped":   s.Dropped,
	}, "", "  ")
	return data
}
