package recorder

import "github.com/user/framecast/pkg/ports"

// FrameBuffer is one slot of the circulating pool. Identity is the slot,
// not the content; the same buffer is reused for many frames. Exactly one
// side holds a buffer at any instant — the producer between NextBuffer
// and ReturnBuffer, a queue while in flight, or the consumer during the
// pull callback.
type FrameBuffer struct {
	slot int
	pix  ports.PixelBuffer
}

// Slot returns the buffer's pool index, stable for the session lifetime.
func (b *FrameBuffer) Slot() int { return b.slot }

// Target returns the underlying readback buffer the GPU copy command
// should write into.
func (b *FrameBuffer) Target() ports.PixelBuffer { return b.pix }

// Size returns the buffer capacity in bytes.
func (b *FrameBuffer) Size() int { return b.pix.Size() }
