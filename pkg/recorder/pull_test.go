package recorder

import (
	"testing"
	"time"

	"github.com/user/framecast/pkg/adapters/logger"
	"github.com/user/framecast/pkg/mocks"
	"github.com/user/framecast/pkg/ports"
)

func TestPull_DropsBufferThatNeverBecomesReadable(t *testing.T) {
	opts := Options{
		Format:     ports.FormatRGBA,
		Width:      4,
		Height:     4,
		FrameRate:  30,
		PoolDepth:  2,
		MapTimeout: 5 * time.Millisecond,
		MapBackoff: 50 * time.Microsecond,
	}
	rec, device, pipe := newTestRecorder(t, opts)

	if err := rec.Play(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// First frame: the copy never completes.
	stuck := waitBuffer(t, rec)
	stuck.Target().(*mocks.PixelBuffer).SetReadable(false)
	rec.ReturnBuffer(stuck)

	// Second frame: a normal readable copy with a marker payload.
	good := waitBuffer(t, rec)
	frame := make([]byte, opts.frameSize())
	frame[0] = 0xAB
	if err := device.CopyToBuffer(frame, good.Target()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec.ReturnBuffer(good)

	rec.Stop()
	if err := rec.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The stuck frame is discarded, the stream continues with the good one.
	pulled := pipe.PulledFrames()
	if len(pulled) != 1 {
		t.Fatalf("expected 1 encoded frame, got %d", len(pulled))
	}
	if pulled[0][0] != 0xAB {
		t.Errorf("wrong frame survived: payload %#x", pulled[0][0])
	}

	stats := rec.Stats()
	if stats.Dropped != 1 || stats.Encoded != 1 || stats.Submitted != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	// The dropped buffer is recycled, not leaked.
	if stats.Pool.Total() != opts.PoolDepth {
		t.Errorf("conservation broken: %+v", stats.Pool)
	}
}

func TestPull_WaitsForLateCopy(t *testing.T) {
	opts := Options{
		Format:     ports.FormatRGBA,
		Width:      4,
		Height:     4,
		FrameRate:  30,
		PoolDepth:  2,
		MapTimeout: time.Second,
		MapBackoff: 50 * time.Microsecond,
	}
	rec, _, pipe := newTestRecorder(t, opts)

	if err := rec.Play(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b := waitBuffer(t, rec)
	pb := b.Target().(*mocks.PixelBuffer)
	pb.SetReadable(false)
	rec.ReturnBuffer(b)

	// The copy completes while the consumer is backing off.
	go func() {
		time.Sleep(2 * time.Millisecond)
		pb.SetReadable(true)
	}()

	rec.Stop()
	if err := rec.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(pipe.PulledFrames()) != 1 {
		t.Fatalf("expected the late frame to be encoded, got %d frames", len(pipe.PulledFrames()))
	}
	if dropped := rec.Stats().Dropped; dropped != 0 {
		t.Errorf("expected no drops, got %d", dropped)
	}
}

func TestPull_TimestampsAdvanceOneStepPerFrame(t *testing.T) {
	opts := Options{
		Format:    ports.FormatRGBA,
		Width:     4,
		Height:    4,
		FrameRate: 29.97,
		PoolDepth: 3,
	}
	rec, device, pipe := newTestRecorder(t, opts)

	if err := rec.Play(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	frame := make([]byte, opts.frameSize())
	for i := 0; i < 5; i++ {
		b := waitBuffer(t, rec)
		if err := device.CopyToBuffer(frame, b.Target()); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		rec.ReturnBuffer(b)
	}

	rec.Stop()
	if err := rec.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ts := pipe.PulledTimestamps()
	if len(ts) != 5 {
		t.Fatalf("expected 5 timestamps, got %d", len(ts))
	}
	if ts[0] != 0 {
		t.Errorf("first pts %s, want 0", ts[0])
	}
	for i := 1; i < len(ts); i++ {
		if ts[i] <= ts[i-1] {
			t.Errorf("pts not strictly increasing at %d: %s then %s", i, ts[i-1], ts[i])
		}
		want := time.Duration(float64(i) * float64(time.Second) / opts.FrameRate)
		if ts[i] != want {
			t.Errorf("frame %d: pts %s, want %s", i, ts[i], want)
		}
	}
}

func TestPull_DroppedFramesDoNotAdvanceTimestamps(t *testing.T) {
	opts := Options{
		Format:     ports.FormatRGBA,
		Width:      4,
		Height:     4,
		FrameRate:  30,
		PoolDepth:  3,
		MapTimeout: 5 * time.Millisecond,
		MapBackoff: 50 * time.Microsecond,
	}
	rec, device, pipe := newTestRecorder(t, opts)

	if err := rec.Play(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	frame := make([]byte, opts.frameSize())
	for i := 0; i < 3; i++ {
		b := waitBuffer(t, rec)
		if i == 1 {
			// Middle frame never becomes readable.
			b.Target().(*mocks.PixelBuffer).SetReadable(false)
		} else if err := device.CopyToBuffer(frame, b.Target()); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		rec.ReturnBuffer(b)
	}

	rec.Stop()
	if err := rec.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Two delivered frames get consecutive indices; the drop leaves no gap.
	ts := pipe.PulledTimestamps()
	if len(ts) != 2 {
		t.Fatalf("expected 2 timestamps, got %d", len(ts))
	}
	step := time.Duration(float64(time.Second) / opts.FrameRate)
	if ts[0] != 0 || ts[1] != step {
		t.Errorf("expected pts 0 and %s, got %s and %s", step, ts[0], ts[1])
	}
}

func TestPull_SinkReceivesFramesAndSummary(t *testing.T) {
	sink := mocks.NewDebugSink(true)
	opts := testOptions()
	opts.Sink = sink

	device := &mocks.GraphicsDevice{}
	pipe := mocks.NewEncodePipeline(opts.frameSize())
	rec, err := New(device, pipe, opts, logger.NewNoop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := rec.Play(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	frame := make([]byte, opts.frameSize())
	for i := 0; i < 3; i++ {
		b := waitBuffer(t, rec)
		if err := device.CopyToBuffer(frame, b.Target()); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		rec.ReturnBuffer(b)
	}

	rec.Stop()
	if err := rec.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sink.RawFrameCount() != 3 {
		t.Errorf("expected 3 raw frames in the sink, got %d", sink.RawFrameCount())
	}
	if len(sink.SessionJSON) == 0 {
		t.Error("expected a session summary in the sink")
	}
}

func TestPull_DisabledSinkIsNotCalled(t *testing.T) {
	sink := mocks.NewDebugSink(false)
	opts := testOptions()
	opts.Sink = sink

	device := &mocks.GraphicsDevice{}
	pipe := mocks.NewEncodePipeline(opts.frameSize())
	rec, err := New(device, pipe, opts, logger.NewNoop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec.Play()
	b := waitBuffer(t, rec)
	frame := make([]byte, opts.frameSize())
	device.CopyToBuffer(frame, b.Target())
	rec.ReturnBuffer(b)
	rec.Stop()
	rec.Close()

	if sink.RawFrameCount() != 0 {
		t.Errorf("disabled sink received %d frames", sink.RawFrameCount())
	}
	if len(sink.SessionJSON) != 0 {
		t.Error("disabled sink received a session summary")
	}
}
