// Package mp4pipeline implements the encode pipeline port on top of an
// ffmpeg child process and mp4ff. Raw frames are piped to ffmpeg's stdin,
// the resulting H.264 elementary stream is collected from stdout, and the
// container is written with mp4ff when the stream ends.
package mp4pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/user/framecast/pkg/ports"
)

// Pipeline implements ports.EncodePipeline. One pipeline encodes one
// output file and is not reusable after Close.
type Pipeline struct {
	cfg        ports.PipelineConfig
	fs         ports.FileSystem
	log        ports.Logger
	ffmpegPath string

	pullMu sync.Mutex
	pull   ports.PullFunc

	playCh    chan struct{}
	playOnce  sync.Once
	closeCh   chan struct{}
	closeOnce sync.Once
}

// New validates the configuration and locates ffmpeg. All setup errors
// surface here; no partial pipeline is ever returned.
func New(cfg ports.PipelineConfig, fs ports.FileSystem, log ports.Logger) (*Pipeline, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("mp4pipeline: invalid dimensions %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Width%2 != 0 || cfg.Height%2 != 0 {
		// yuv420p subsamples chroma 2x2.
		return nil, fmt.Errorf("mp4pipeline: dimensions must be even, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.FrameRate <= 0 {
		return nil, fmt.Errorf("mp4pipeline: invalid frame rate %g", cfg.FrameRate)
	}
	if ffmpegPixFmt(cfg.Format) == "" {
		return nil, fmt.Errorf("mp4pipeline: unsupported pixel format %d", int(cfg.Format))
	}
	if cfg.OutputPath == "" {
		return nil, fmt.Errorf("mp4pipeline: output path is empty")
	}

	ffmpegPath, err := FindFFmpeg()
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:        cfg,
		fs:         fs,
		log:        log.WithComponent("mp4pipeline"),
		ffmpegPath: ffmpegPath,
		playCh:     make(chan struct{}),
		closeCh:    make(chan struct{}),
	}, nil
}

// SetPull registers the frame supplier. Must be called before Run.
func (p *Pipeline) SetPull(fn ports.PullFunc) {
	p.pullMu.Lock()
	p.pull = fn
	p.pullMu.Unlock()
}

// Play releases the event loop to start consuming frames. Idempotent.
func (p *Pipeline) Play() error {
	p.playOnce.Do(func() { close(p.playCh) })
	return nil
}

// Run is the blocking event loop. It waits for Play, pulls frames until
// the callback reports end-of-stream, then flushes the encoder, muxes
// the MP4 and writes the output file exactly once.
func (p *Pipeline) Run() error {
	p.pullMu.Lock()
	pull := p.pull
	p.pullMu.Unlock()
	if pull == nil {
		return ErrNoPull
	}

	select {
	case <-p.playCh:
	case <-p.closeCh:
		// Play and Close may both be pending; a session that played
		// before closing still drains its queued frames.
		select {
		case <-p.playCh:
		default:
			// Closed without ever playing; nothing was encoded and no
			// file is written.
			return nil
		}
	}

	enc, err := startEncoder(p.ffmpegPath, p.cfg)
	if err != nil {
		return err
	}
	p.log.Debug("Encoder started: %dx%d %s at %g fps",
		p.cfg.Width, p.cfg.Height, p.cfg.Format, p.cfg.FrameRate)

	dst := make([]byte, p.cfg.FrameSize())
	var pts []time.Duration
	for {
		ts, eos := pull(dst)
		if eos {
			break
		}
		if err := enc.writeFrame(dst); err != nil {
			enc.kill()
			return err
		}
		pts = append(pts, ts)
	}

	stream, err := enc.finish()
	if err != nil {
		return err
	}
	if len(pts) == 0 {
		p.log.Warn("End of stream before any frame; no output written")
		return nil
	}

	data, err := buildMP4(stream, pts, p.cfg.Width, p.cfg.Height, p.cfg.FrameRate)
	if err != nil {
		return fmt.Errorf("mp4pipeline: mux: %w", err)
	}
	if err := p.fs.WriteFile(p.cfg.OutputPath, data); err != nil {
		return fmt.Errorf("mp4pipeline: write output: %w", err)
	}
	p.log.Info("Output saved to %s (%d frames, %d bytes)", p.cfg.OutputPath, len(pts), len(data))
	return nil
}

// Close unblocks Run if Play was never called. A running stream is never
// interrupted mid-frame; end-of-stream always comes from the pull
// callback. Idempotent.
func (p *Pipeline) Close() error {
	p.closeOnce.Do(func() { close(p.closeCh) })
	return nil
}

var _ ports.EncodePipeline = (*Pipeline)(nil)
