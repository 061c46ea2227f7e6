package recorder

import (
	"fmt"
	"sync/atomic"

	"github.com/user/framecast/pkg/ports"
)

// PoolCounts is a snapshot of where the pool's buffers are. The sum of
// the three partitions always equals the pool depth.
type PoolCounts struct {
	// Free buffers are held by the producer, awaiting a GPU write.
	Free int
	// InFlight buffers are queued for the consumer or currently being
	// read by the pull callback.
	InFlight int
	// Returned buffers sit on the recycle queue ready to be acquired.
	Returned int
}

// Total returns the sum of all partitions; it must equal the pool depth.
func (c PoolCounts) Total() int { return c.Free + c.InFlight + c.Returned }

// bufferPool owns the N pre-allocated readback buffers and the two
// bounded queues that circulate them. Both queues have capacity N, so a
// send can only fail if a buffer was duplicated — that is an invariant
// violation and panics rather than blocking.
type bufferPool struct {
	depth    int
	filled   chan *FrameBuffer
	recycled chan *FrameBuffer

	// Held-buffer counters; queue occupancy is read from channel lengths.
	heldProducer atomic.Int64
	heldConsumer atomic.Int64
}

// newBufferPool allocates exactly depth buffers of size bytes each and
// seeds the recycle queue with all of them. No buffer is allocated or
// freed after this point.
func newBufferPool(device ports.GraphicsDevice, depth, size int) (*bufferPool, error) {
	p := &bufferPool{
		depth:    depth,
		filled:   make(chan *FrameBuffer, depth),
		recycled: make(chan *FrameBuffer, depth),
	}
	for i := 0; i < depth; i++ {
		pix, err := device.NewReadbackBuffer(size)
		if err != nil {
			return nil, fmt.Errorf("allocate readback buffer %d/%d: %w", i+1, depth, err)
		}
		p.recycled <- &FrameBuffer{slot: i, pix: pix}
	}
	return p, nil
}

// acquireFree is the producer's non-blocking attempt to obtain a buffer.
// nil means starvation (all buffers in flight), a normal condition.
func (p *bufferPool) acquireFree() *FrameBuffer {
	select {
	case b := <-p.recycled:
		p.heldProducer.Add(1)
		return b
	default:
		return nil
	}
}

// submitFilled enqueues a written buffer for the consumer. The queue is
// sized to hold every buffer, so this never blocks.
func (p *bufferPool) submitFilled(b *FrameBuffer) {
	p.heldProducer.Add(-1)
	select {
	case p.filled <- b:
	default:
		panic(fmt.Sprintf("recorder: filled queue overflow (slot %d, depth %d)", b.slot, p.depth))
	}
}

// tryTakeFilled is a non-blocking take used while draining after stop.
func (p *bufferPool) tryTakeFilled() *FrameBuffer {
	select {
	case b := <-p.filled:
		p.heldConsumer.Add(1)
		return b
	default:
		return nil
	}
}

// takeFilled blocks until a filled buffer arrives or stop fires with the
// queue empty. Frames already queued win over the stop signal, so frames
// submitted before Stop are still encoded.
func (p *bufferPool) takeFilled(stop <-chan struct{}) (*FrameBuffer, error) {
	if b := p.tryTakeFilled(); b != nil {
		return b, nil
	}
	select {
	case b := <-p.filled:
		p.heldConsumer.Add(1)
		return b, nil
	case <-stop:
		if b := p.tryTakeFilled(); b != nil {
			return b, nil
		}
		return nil, ErrClosed
	}
}

// recycle returns a consumed buffer to the producer side. Never blocks;
// overflow would mean a duplicated buffer.
func (p *bufferPool) recycle(b *FrameBuffer) {
	p.heldConsumer.Add(-1)
	select {
	case p.recycled <- b:
	default:
		panic(fmt.Sprintf("recorder: recycle queue overflow (slot %d, depth %d)", b.slot, p.depth))
	}
}

// Counts returns a snapshot of the buffer partitions. Individual reads
// are atomic but the snapshot as a whole is not; callers verifying
// conservation should quiesce the pipeline first.
func (p *bufferPool) Counts() PoolCounts {
	return PoolCounts{
		Free:     int(p.heldProducer.Load()),
		InFlight: len(p.filled) + int(p.heldConsumer.Load()),
		Returned: len(p.recycled),
	}
}
