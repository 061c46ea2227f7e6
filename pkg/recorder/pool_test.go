package recorder

import (
	"errors"
	"testing"
	"time"

	"github.com/user/framecast/pkg/mocks"
	"github.com/user/framecast/pkg/ports"
)

func newTestPool(t *testing.T, depth, size int) *bufferPool {
	t.Helper()
	device := &mocks.GraphicsDevice{}
	pool, err := newBufferPool(device, depth, size)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return pool
}

func TestBufferPool_SeedsAllBuffers(t *testing.T) {
	pool := newTestPool(t, 4, 64)

	counts := pool.Counts()
	if counts.Returned != 4 {
		t.Errorf("expected 4 buffers on the recycle queue, got %d", counts.Returned)
	}
	if counts.Total() != 4 {
		t.Errorf("expected total 4, got %d", counts.Total())
	}

	// Slots are stable identities assigned at allocation.
	seen := map[int]bool{}
	for i := 0; i < 4; i++ {
		b := pool.acquireFree()
		if b == nil {
			t.Fatalf("acquire %d returned nil", i)
		}
		if seen[b.Slot()] {
			t.Errorf("slot %d handed out twice", b.Slot())
		}
		seen[b.Slot()] = true
	}
}

func TestBufferPool_AcquireExhaustion(t *testing.T) {
	pool := newTestPool(t, 2, 16)

	a := pool.acquireFree()
	b := pool.acquireFree()
	if a == nil || b == nil {
		t.Fatal("expected two buffers from a depth-2 pool")
	}
	if c := pool.acquireFree(); c != nil {
		t.Errorf("expected nil on exhausted pool, got slot %d", c.Slot())
	}

	counts := pool.Counts()
	if counts.Free != 2 || counts.Returned != 0 {
		t.Errorf("unexpected counts after exhaustion: %+v", counts)
	}
}

func TestBufferPool_ConservationOverManyCycles(t *testing.T) {
	const depth = 3
	const cycles = 5000
	pool := newTestPool(t, depth, 16)
	stop := make(chan struct{})

	for i := 0; i < cycles; i++ {
		b := pool.acquireFree()
		if b == nil {
			t.Fatalf("cycle %d: pool empty in single-threaded loop", i)
		}
		pool.submitFilled(b)

		got, err := pool.takeFilled(stop)
		if err != nil {
			t.Fatalf("cycle %d: takeFilled: %v", i, err)
		}
		if got.Slot() != b.Slot() {
			t.Fatalf("cycle %d: took slot %d, submitted %d", i, got.Slot(), b.Slot())
		}
		pool.recycle(got)

		if total := pool.Counts().Total(); total != depth {
			t.Fatalf("cycle %d: conservation broken, total %d != depth %d", i, total, depth)
		}
	}

	counts := pool.Counts()
	if counts.Returned != depth || counts.Free != 0 || counts.InFlight != 0 {
		t.Errorf("expected all buffers returned after quiesce, got %+v", counts)
	}
}

func TestBufferPool_TakeFilledBlocksUntilSubmit(t *testing.T) {
	pool := newTestPool(t, 1, 16)
	stop := make(chan struct{})

	go func() {
		time.Sleep(10 * time.Millisecond)
		b := pool.acquireFree()
		pool.submitFilled(b)
	}()

	start := time.Now()
	b, err := pool.takeFilled(stop)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b == nil {
		t.Fatal("expected a buffer")
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Error("takeFilled returned before the submit")
	}
}

func TestBufferPool_TakeFilledDrainsBeforeStop(t *testing.T) {
	pool := newTestPool(t, 2, 16)
	stop := make(chan struct{})

	// Two frames queued, then stop fires.
	first := pool.acquireFree()
	second := pool.acquireFree()
	pool.submitFilled(first)
	pool.submitFilled(second)
	close(stop)

	// Queued frames win over the stop signal.
	for i := 0; i < 2; i++ {
		b, err := pool.takeFilled(stop)
		if err != nil {
			t.Fatalf("take %d: expected queued frame, got error: %v", i, err)
		}
		pool.recycle(b)
	}

	// Queue empty: now the stop signal surfaces.
	if _, err := pool.takeFilled(stop); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed on drained queue, got %v", err)
	}
}

func TestBufferPool_AllocationFailure(t *testing.T) {
	device := &mocks.GraphicsDevice{
		NewReadbackBufferFunc: func(size int) (ports.PixelBuffer, error) {
			return nil, errors.New("out of device memory")
		},
	}
	if _, err := newBufferPool(device, 2, 16); err == nil {
		t.Fatal("expected allocation error")
	}
}
