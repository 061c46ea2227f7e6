package ports

import "fmt"

// PixelFormat identifies the channel layout of a frame buffer.
// The format is fixed when a recording session is constructed; producer
// and consumer must agree on it or colors are silently corrupted.
type PixelFormat int

const (
	// FormatBGRx is 4 bytes per pixel, blue first, padding byte last.
	// This is the native readback layout of most swapchains.
	FormatBGRx PixelFormat = iota
	// FormatRGBA is 4 bytes per pixel in image.RGBA order.
	FormatRGBA
	// FormatRGB is 3 bytes per pixel, no alpha.
	FormatRGB
)

// Channels returns the number of bytes per pixel for the format.
func (f PixelFormat) Channels() int {
	switch f {
	case FormatBGRx, FormatRGBA:
		return 4
	case FormatRGB:
		return 3
	default:
		return 0
	}
}

// String returns the format name as used in caps/pix_fmt strings.
func (f PixelFormat) String() string {
	switch f {
	case FormatBGRx:
		return "bgrx"
	case FormatRGBA:
		return "rgba"
	case FormatRGB:
		return "rgb"
	default:
		return fmt.Sprintf("unknown(%d)", int(f))
	}
}

// ParsePixelFormat parses a format name. Unknown names default to BGRx.
func ParsePixelFormat(s string) PixelFormat {
	switch s {
	case "rgba":
		return FormatRGBA
	case "rgb":
		return FormatRGB
	default:
		return FormatBGRx
	}
}

// PixelBuffer is a fixed-size readback target owned by the graphics layer.
// The buffer may be GPU-resident: after a copy command is issued into it,
// the data is not CPU-readable until the copy has executed.
type PixelBuffer interface {
	// Size returns the buffer capacity in bytes. Fixed for the buffer's lifetime.
	Size() int

	// TryMap attempts a non-blocking map for CPU read. It returns the
	// readable bytes and true if the buffer contents are safe to read,
	// or nil and false if a copy into the buffer is still in flight.
	TryMap() ([]byte, bool)

	// Unmap releases a successful TryMap. Calling Unmap without a
	// preceding successful TryMap is a programming error.
	Unmap()
}

// GraphicsDevice abstracts the graphics layer operations the recorder
// consumes: allocating readback buffers and issuing copy commands into
// them. Device setup, swapchains and render passes live elsewhere.
type GraphicsDevice interface {
	// NewReadbackBuffer allocates a CPU-readable copy destination of the
	// given size in device memory.
	NewReadbackBuffer(size int) (PixelBuffer, error)

	// CopyToBuffer issues a copy of src into dst. The copy may complete
	// asynchronously; dst.TryMap reports when the data is readable.
	// len(src) must equal dst.Size().
	CopyToBuffer(src []byte, dst PixelBuffer) error
}
