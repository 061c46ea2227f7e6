package ports

// DebugSink receives intermediate recording artifacts for inspection.
// Implementations decide where they go; the recorder only does the extra
// work when Enabled reports true.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveRawFrame saves one frame of raw pixel data exactly as the
	// encoder pulled it, before any encoding.
	SaveRawFrame(index int, format PixelFormat, width, height int, data []byte) error

	// SaveSessionJSON saves the recording session summary as JSON.
	SaveSessionJSON(data []byte) error
}
