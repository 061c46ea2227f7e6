package recorder

import (
	"time"
)

// maxMapBackoff caps the exponential backoff while waiting for a GPU
// copy to complete.
const maxMapBackoff = 2 * time.Millisecond

// pull is the consumer pull adapter, invoked by the encode pipeline's
// event loop whenever it needs the next frame. It runs entirely on the
// consumer goroutine.
func (r *Recorder) pull(dst []byte) (time.Duration, bool) {
	for {
		b, err := r.pool.takeFilled(r.shutdown)
		if err != nil {
			// Shutdown observed with the queue drained: the one and only
			// end-of-stream path.
			if r.opts.Sink != nil && r.opts.Sink.Enabled() {
				r.opts.Sink.SaveSessionJSON(r.summaryJSON())
			}
			return 0, true
		}

		data, ok := r.mapForRead(b)
		if !ok {
			// The copy never completed within the budget. Drop the frame
			// and keep the stream alive rather than burning a core.
			r.dropped.Add(1)
			r.log.Warn("Frame dropped: buffer slot %d not readable within %s", b.Slot(), r.opts.MapTimeout)
			r.pool.recycle(b)
			continue
		}

		// Channel order was fixed at construction; producer and encoder
		// use the same layout, so this is a straight copy. A length
		// mismatch would be a configuration bug caught in New.
		copy(dst, data)
		b.pix.Unmap()
		r.pool.recycle(b)

		i := r.frameIndex
		r.frameIndex++
		r.encoded.Add(1)

		if r.opts.Sink != nil && r.opts.Sink.Enabled() {
			r.opts.Sink.SaveRawFrame(int(i), r.opts.Format, r.opts.Width, r.opts.Height, dst)
		}

		// pts = frameIndex / frameRate, strictly increasing, one step
		// per delivered frame.
		pts := time.Duration(float64(i) * float64(time.Second) / r.opts.FrameRate)
		return pts, false
	}
}

// mapForRead waits for b to become CPU-readable with exponential backoff,
// bounded by MapTimeout.
func (r *Recorder) mapForRead(b *FrameBuffer) ([]byte, bool) {
	if data, ok := b.pix.TryMap(); ok {
		return data, true
	}
	deadline := time.Now().Add(r.opts.MapTimeout)
	backoff := r.opts.MapBackoff
	for {
		time.Sleep(backoff)
		if data, ok := b.pix.TryMap(); ok {
			return data, true
		}
		if time.Now().After(deadline) {
			return nil, false
		}
		if backoff < maxMapBackoff {
			backoff *= 2
		}
	}
}
