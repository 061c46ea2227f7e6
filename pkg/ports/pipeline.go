package ports

import "time"

// PullFunc supplies the next frame to an encode pipeline. The pipeline
// calls it from its own event loop whenever it needs data. The callback
// fills dst (whose length is exactly one frame) and returns the frame's
// presentation timestamp. When eos is true dst is left untouched and the
// pipeline must flush and finalize its output.
type PullFunc func(dst []byte) (pts time.Duration, eos bool)

// PipelineConfig fixes the encode pipeline parameters at construction.
// None of these are mutable at runtime.
type PipelineConfig struct {
	Format     PixelFormat
	Width      int
	Height     int
	FrameRate  float64
	OutputPath string

	// Quality is a CRF-style value, 0-63, lower is better. Zero selects
	// the encoder default.
	Quality int
	// Bitrate is a target bitrate in kbps. Zero leaves it unconstrained.
	Bitrate int
}

// FrameSize returns the byte length of one frame in the configured format.
func (c PipelineConfig) FrameSize() int {
	return c.Width * c.Height * c.Format.Channels()
}

// EncodePipeline abstracts the external video-encoding pipeline. One
// pipeline encodes one output file; it is not reusable after Close.
//
// Call order: SetPull, then Run on a dedicated goroutine, then Play to
// begin consuming frames. Run blocks until the pull callback reports
// end-of-stream or the pipeline fails, finalizes the container exactly
// once, and returns the terminal error if any.
type EncodePipeline interface {
	// SetPull registers the frame supplier. Must be called before Run.
	SetPull(fn PullFunc)

	// Play transitions the pipeline to consuming. Idempotent.
	Play() error

	// Run is the blocking event loop. It returns nil after a clean
	// end-of-stream finalize, or the pipeline's terminal error.
	Run() error

	// Close releases pipeline resources. If Run is blocked waiting for
	// Play, Close unblocks it. Close never interrupts a frame mid-encode.
	Close() error
}
