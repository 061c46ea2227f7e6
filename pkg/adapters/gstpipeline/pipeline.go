//go:build gstreamer

// Package gstpipeline implements the encode pipeline port on a GStreamer
// appsrc pipeline. It requires the GStreamer C libraries and is selected
// with the "gstreamer" build tag; the default build uses mp4pipeline.
//
// Pipeline: appsrc → queue → videoconvert → x264enc → h264parse →
// mp4mux → filesink. The appsrc runs in pull mode: its need-data
// callback asks the registered PullFunc for the next frame.
package gstpipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/user/framecast/pkg/ports"
)

// gstFormat maps a pixel format to GStreamer's video/x-raw format name.
func gstFormat(f ports.PixelFormat) string {
	switch f {
	case ports.FormatBGRx:
		return "BGRx"
	case ports.FormatRGBA:
		return "RGBA"
	case ports.FormatRGB:
		return "RGB"
	default:
		return ""
	}
}

// Pipeline implements ports.EncodePipeline on GStreamer.
type Pipeline struct {
	cfg ports.PipelineConfig
	log ports.Logger

	pipeline *gst.Pipeline
	appsrc   *app.Source

	pullMu sync.Mutex
	pull   ports.PullFunc

	playCh    chan struct{}
	playOnce  sync.Once
	closeCh   chan struct{}
	closeOnce sync.Once
}

// New builds the element graph. Missing elements and invalid dimensions
// surface here; no partial pipeline is ever returned.
func New(cfg ports.PipelineConfig, log ports.Logger) (*Pipeline, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width%2 != 0 || cfg.Height%2 != 0 {
		return nil, fmt.Errorf("gstpipeline: invalid dimensions %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.FrameRate <= 0 {
		return nil, fmt.Errorf("gstpipeline: invalid frame rate %g", cfg.FrameRate)
	}
	if gstFormat(cfg.Format) == "" {
		return nil, fmt.Errorf("gstpipeline: unsupported pixel format %d", int(cfg.Format))
	}
	if cfg.OutputPath == "" {
		return nil, fmt.Errorf("gstpipeline: output path is empty")
	}

	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("gstpipeline: create pipeline: %w", err)
	}

	appsrc, err := app.NewAppSrc()
	if err != nil {
		return nil, fmt.Errorf("gstpipeline: create appsrc: %w", err)
	}

	elemNames := []string{"queue", "videoconvert", "x264enc", "h264parse", "mp4mux", "filesink"}
	elems := make([]*gst.Element, 0, len(elemNames))
	for _, name := range elemNames {
		e, err := gst.NewElement(name)
		if err != nil {
			return nil, fmt.Errorf("gstpipeline: missing element %q: %w", name, err)
		}
		elems = append(elems, e)
	}
	sink := elems[len(elems)-1]
	sink.SetProperty("location", cfg.OutputPath)

	capsStr := fmt.Sprintf("video/x-raw,format=%s,width=%d,height=%d,framerate=%d/1",
		gstFormat(cfg.Format), cfg.Width, cfg.Height, int(cfg.FrameRate))
	appsrc.SetCaps(gst.NewCapsFromString(capsStr))
	appsrc.Element.SetProperty("format", 3) // GST_FORMAT_TIME

	all := append([]*gst.Element{appsrc.Element}, elems...)
	pipeline.AddMany(all...)
	if err := gst.ElementLinkMany(all...); err != nil {
		return nil, fmt.Errorf("gstpipeline: link elements: %w", err)
	}

	p := &Pipeline{
		cfg:      cfg,
		log:      log.WithComponent("gstpipeline"),
		pipeline: pipeline,
		appsrc:   appsrc,
		playCh:   make(chan struct{}),
		closeCh:  make(chan struct{}),
	}

	appsrc.SetCallbacks(&app.SourceCallbacks{
		NeedDataFunc: func(src *app.Source, length uint) {
			p.needData(src)
		},
	})

	return p, nil
}

// needData supplies one frame per appsrc request.
func (p *Pipeline) needData(src *app.Source) {
	p.pullMu.Lock()
	pull := p.pull
	p.pullMu.Unlock()
	if pull == nil {
		src.EndStream()
		return
	}

	data := make([]byte, p.cfg.FrameSize())
	pts, eos := pull(data)
	if eos {
		src.EndStream()
		return
	}

	buffer := gst.NewBufferFromBytes(data)
	buffer.SetPresentationTimestamp(pts)
	src.PushBuffer(buffer)
}

// SetPull registers the frame supplier. Must be called before Run.
func (p *Pipeline) SetPull(fn ports.PullFunc) {
	p.pullMu.Lock()
	p.pull = fn
	p.pullMu.Unlock()
}

// Play transitions the pipeline to playing. Idempotent.
func (p *Pipeline) Play() error {
	p.playOnce.Do(func() { close(p.playCh) })
	if err := p.pipeline.SetState(gst.StatePlaying); err != nil {
		return fmt.Errorf("gstpipeline: set playing: %w", err)
	}
	return nil
}

// Run waits for Play, then blocks on the bus until end-of-stream or an
// error message. The container finalizes when mp4mux sees EOS; once
// playing, only those two messages end the loop, so a concurrent Close
// never tears the pipeline down before the stream has drained.
func (p *Pipeline) Run() error {
	select {
	case <-p.playCh:
	case <-p.closeCh:
		// Play and Close may both be pending; a played session still
		// drains. Only a session that never played aborts here.
		select {
		case <-p.playCh:
		default:
			return nil
		}
	}
	defer p.pipeline.SetState(gst.StateNull)

	bus := p.pipeline.GetPipelineBus()
	for {
		msg := bus.TimedPop(100 * time.Millisecond)
		if msg == nil {
			continue
		}
		switch msg.Type() {
		case gst.MessageEOS:
			p.log.Info("Output saved to %s", p.cfg.OutputPath)
			return nil
		case gst.MessageError:
			return fmt.Errorf("gstpipeline: %s", msg.String())
		}
	}
}

// Close unblocks Run if Play was never called. A playing stream is never
// cut mid-frame; its end-of-stream comes from the pull callback, which
// appsrc forwards to the muxer so the container finalizes.
func (p *Pipeline) Close() error {
	p.closeOnce.Do(func() { close(p.closeCh) })
	return nil
}

var _ ports.EncodePipeline = (*Pipeline)(nil)
