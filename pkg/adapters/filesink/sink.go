// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"path/filepath"

	"github.com/user/framecast/pkg/ports"
)

// Sink saves debug output under a base directory.
type Sink struct {
	baseDir string
	fs      ports.FileSystem
}

// New creates a new file sink.
func New(baseDir string, fs ports.FileSystem) *Sink {
	return &Sink{baseDir: baseDir, fs: fs}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveRawFrame saves one pulled frame as a PNG.
func (s *Sink) SaveRawFrame(index int, format ports.PixelFormat, width, height int, data []byte) error {
	img, err := toRGBA(format, width, height, data)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode PNG: %w", err)
	}
	path := filepath.Join(s.baseDir, "frames", fmt.Sprintf("frame-%06d.png", index))
	return s.fs.WriteFile(path, buf.Bytes())
}

// SaveSessionJSON saves the recording session summary.
func (s *Sink) SaveSessionJSON(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "session.json"), data)
}

// toRGBA repacks raw pixel data into an image.RGBA for encoding.
func toRGBA(format ports.PixelFormat, width, height int, data []byte) (*image.RGBA, error) {
	want := width * height * format.Channels()
	if len(data) != want {
		return nil, fmt.Errorf("filesink: %s frame %dx%d wants %d bytes, got %d",
			format, width, height, want, len(data))
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	n := width * height
	switch format {
	case ports.FormatRGBA:
		copy(img.Pix, data)
	case ports.FormatBGRx:
		for i := 0; i < n; i++ {
			img.Pix[i*4+0] = data[i*4+2]
			img.Pix[i*4+1] = data[i*4+1]
			img.Pix[i*4+2] = data[i*4+0]
			img.Pix[i*4+3] = 0xFF
		}
	case ports.FormatRGB:
		for i := 0; i < n; i++ {
			img.Pix[i*4+0] = data[i*3+0]
			img.Pix[i*4+1] = data[i*3+1]
			img.Pix[i*4+2] = data[i*3+2]
			img.Pix[i*4+3] = 0xFF
		}
	default:
		return nil, fmt.Errorf("filesink: unsupported format %d", int(format))
	}
	return img, nil
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
