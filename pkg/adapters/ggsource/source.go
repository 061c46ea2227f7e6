// Package ggsource provides a synthetic frame source rendered with the
// gg library. It stands in for a real render loop in the CLI demo and in
// integration tests: each frame is an animated scene deterministic in
// the frame index.
package ggsource

import (
	"image"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/framecast/pkg/ports"
)

// Source implements ports.FrameSource with an animated orbit scene.
type Source struct {
	width  int
	height int
	// oversample renders at a multiple of the target size and downscales
	// for smoother edges. 1 disables it.
	oversample int
}

// New creates a source for the given output dimensions with 2x
// oversampling.
func New(width, height int) *Source {
	return &Source{width: width, height: height, oversample: 2}
}

// Render draws frame index at time t into dst.
func (s *Source) Render(index int, t float64, dst *image.RGBA) error {
	w := s.width * s.oversample
	h := s.height * s.oversample
	dc := gg.NewContext(w, h)

	// Background sweep keyed to time.
	hue := math.Mod(t*0.1, 1.0)
	dc.SetRGB(0.08+0.04*hue, 0.08, 0.14)
	dc.Clear()

	cx, cy := float64(w)/2, float64(h)/2
	radius := math.Min(cx, cy) * 0.6

	// Three orbiting dots at different angular velocities.
	for k := 0; k < 3; k++ {
		speed := 0.5 + float64(k)*0.35
		angle := 2 * math.Pi * speed * t
		x := cx + radius*math.Cos(angle)
		y := cy + radius*math.Sin(angle)
		dc.SetRGB(0.3+0.2*float64(k), 0.8-0.25*float64(k), 0.55)
		dc.DrawCircle(x, y, float64(w)*0.04)
		dc.Fill()
	}

	// Pulsing center disc so consecutive frames always differ.
	pulse := 0.5 + 0.5*math.Sin(2*math.Pi*t)
	dc.SetRGB(0.9, 0.6+0.3*pulse, 0.2)
	dc.DrawCircle(cx, cy, radius*0.25*(0.8+0.4*pulse))
	dc.Fill()

	src, ok := dc.Image().(*image.RGBA)
	if !ok {
		// gg always backs its context with RGBA; fall back to a convert
		// if that ever changes.
		tmp := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(tmp, tmp.Bounds(), dc.Image(), image.Point{}, draw.Src)
		src = tmp
	}

	if s.oversample == 1 {
		draw.Draw(dst, dst.Bounds(), src, image.Point{}, draw.Src)
		return nil
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return nil
}

// Ensure Source implements ports.FrameSource
var _ ports.FrameSource = (*Source)(nil)
