// Package recorder implements a bounded, backpressure-aware frame-handoff
// pipeline between a real-time render loop and an asynchronous video
// encoder.
//
// # Philosophy
//
// "Never allocate on the hot path, never stall the render loop."
//
// A fixed set of readback buffers circulates between the producer (the
// render loop) and the consumer (the encode pipeline's event loop) over
// two bounded queues forming a closed ring. If the encoder falls behind,
// the producer runs out of free buffers and skips frames; if the producer
// falls behind, the encoder blocks until a frame exists. Neither case is
// an error.
//
// # Architecture
//
//	render loop → [GPU copy] → filled queue → pull callback → encoder
//	     ↑                                        │
//	     └──────────── recycle queue ←────────────┘
//
// Both queues are bounded at the pool depth, so the total buffer count is
// conserved: at any instant every buffer is held by exactly one side or
// sits in exactly one queue.
//
// # Basic Usage
//
//	rec, err := recorder.New(device, pipe, recorder.Options{
//	    Format:    ports.FormatBGRx,
//	    Width:     1280,
//	    Height:    720,
//	    FrameRate: 60,
//	    PoolDepth: 5,
//	}, log)
//	if err != nil { ... }
//
//	rec.Play()
//	for frame := range renderLoop {
//	    buf := rec.NextBuffer()
//	    if buf == nil {
//	        continue // not recording, or all buffers in flight
//	    }
//	    issueGPUCopy(frame, buf.Target())
//	    waitCopyComplete()
//	    rec.ReturnBuffer(buf)
//	}
//	rec.Stop()
//	err = rec.Close() // joins the encoder, finalizes the file
//
// # Shutdown
//
// Stop is cooperative: the encoder drains frames already in flight, then
// emits end-of-stream so the container finalizes exactly once. The
// pipeline is never torn down mid-frame. Close joins the encoder
// goroutine and is the single place a session-fatal encode error
// surfaces.
package recorder
