package ports

import "image"

// FrameSource produces the frames a demo or test producer feeds into a
// recording session. Real applications render with their own loop and
// never need this interface; it exists so the CLI and tests have a
// producer to drive.
type FrameSource interface {
	// Render draws frame number index (at t seconds since the first
	// frame) into dst. dst keeps its dimensions; Render overwrites every
	// pixel.
	Render(index int, t float64, dst *image.RGBA) error
}
