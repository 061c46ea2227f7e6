// Package main provides the CLI entry point for framecast.
package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/framecast/pkg/adapters/filesink"
	"github.com/user/framecast/pkg/adapters/ggsource"
	"github.com/user/framecast/pkg/adapters/logger"
	"github.com/user/framecast/pkg/adapters/memgraphics"
	"github.com/user/framecast/pkg/adapters/mp4pipeline"
	"github.com/user/framecast/pkg/adapters/nullsink"
	"github.com/user/framecast/pkg/adapters/osfilesystem"
	"github.com/user/framecast/pkg/config"
	"github.com/user/framecast/pkg/ports"
	"github.com/user/framecast/pkg/recorder"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "framecast",
		Usage:   "Record procedurally rendered frames as MP4 video.",
		Version: version,
		Commands: []*cli.Command{
			recordCommand(),
			snapshotCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func recordCommand() *cli.Command {
	return &cli.Command{
		Name:  "record",
		Usage: "Render an animated scene and encode it to MP4.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: "Output MP4 file path."},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file path."},
			&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Usage: "Frame width in pixels (default: 640)."},
			&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Usage: "Frame height in pixels (default: 360)."},
			&cli.Float64Flag{Name: "fps", Usage: "Frames per second (default: 30)."},
			&cli.Float64Flag{Name: "duration", Usage: "Recording duration in seconds (default: 5)."},
			&cli.StringFlag{Name: "format", Usage: "Pixel format: bgrx, rgba or rgb (default: rgba)."},
			&cli.IntFlag{Name: "pool-depth", Usage: "Number of pre-allocated frame buffers (default: 5)."},
			&cli.IntFlag{Name: "quality", Aliases: []string{"q"}, Usage: "Video quality (CRF 0-63, lower is better)."},
			&cli.IntFlag{Name: "bitrate", Usage: "Target bitrate in kbps (0 = unconstrained)."},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "Enable debug output."},
			&cli.StringFlag{Name: "debug-dir", Value: "./debug", Usage: "Directory for debug output."},
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Value: "info", Usage: "Log level (debug, info, warn, error)."},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: "Suppress all log output."},
		},
		Action: runRecord,
	}
}

func runRecord(c *cli.Context) error {
	fs := osfilesystem.New()

	cfg, err := config.Load(c.String("config"), fs)
	if err != nil {
		return err
	}
	applyOverrides(c, &cfg)
	cfg.OutputPath = c.String("output")

	var log ports.Logger
	if c.Bool("quiet") {
		log = logger.NewNoop()
	} else {
		log = logger.NewConsole(ports.ParseLogLevel(c.String("log-level")))
	}

	var sink ports.DebugSink
	if c.Bool("debug") {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs)
	} else {
		sink = nullsink.New()
	}

	pipe, err := mp4pipeline.New(cfg.PipelineConfig(), fs, log)
	if err != nil {
		return err
	}

	device := memgraphics.New()

	opts := cfg.RecorderOptions()
	opts.Sink = sink
	rec, err := recorder.New(device, pipe, opts, log)
	if err != nil {
		return err
	}

	// Handle signals; Stop is non-blocking so it is safe to call from
	// the signal goroutine while the producer loop is still ticking.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	interrupted := make(chan struct{})
	go func() {
		<-sigCh
		log.Warn(l10n.T("Interrupted, shutting down..."))
		close(interrupted)
		rec.Stop()
	}()

	if err := rec.Play(); err != nil {
		return err
	}
	log.Info(l10n.F("Recording %dx%d at %.4g fps...", cfg.Width, cfg.Height, cfg.FPS))

	if err := produce(rec, device, &cfg, interrupted, log); err != nil {
		rec.Close()
		return err
	}

	rec.Stop()
	if err := rec.Close(); err != nil {
		return err
	}

	stats := rec.Stats()
	log.Info(l10n.F("Output saved to %s (%d frames encoded, %d dropped)", cfg.OutputPath, stats.Encoded, stats.Dropped))
	return nil
}

// produce runs the real-time render loop. Each tick renders the animated
// scene into a pool buffer and hands it off; ticks that find the pool
// empty skip the frame rather than stall the loop.
func produce(rec *recorder.Recorder, device ports.GraphicsDevice, cfg *config.Config, interrupted <-chan struct{}, log ports.Logger) error {
	src := ggsource.New(cfg.Width, cfg.Height)
	format := ports.ParsePixelFormat(cfg.Format)

	canvas := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	packed := make([]byte, cfg.Width*cfg.Height*format.Channels())

	total := int(cfg.DurationS * cfg.FPS)
	interval := time.Duration(float64(time.Second) / cfg.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	skipped := 0
	for i := 0; i < total; i++ {
		select {
		case <-interrupted:
			return nil
		case <-ticker.C:
		}

		buf := rec.NextBuffer()
		if buf == nil {
			skipped++
			continue
		}

		t := float64(i) / cfg.FPS
		if err := src.Render(i, t, canvas); err != nil {
			return fmt.Errorf("render frame %d: %w", i, err)
		}
		packPixels(canvas, format, packed)

		if err := device.CopyToBuffer(packed, buf.Target()); err != nil {
			return fmt.Errorf("copy frame %d: %w", i, err)
		}
		rec.ReturnBuffer(buf)
	}

	if skipped > 0 {
		log.Warn(l10n.F("Skipped %d frames: no free buffer at tick", skipped))
	}
	return nil
}

// packPixels converts an RGBA canvas to the session pixel format.
func packPixels(img *image.RGBA, format ports.PixelFormat, dst []byte) {
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	switch format {
	case ports.FormatRGBA:
		for y := 0; y < h; y++ {
			row := img.Pix[y*img.Stride : y*img.Stride+w*4]
			copy(dst[y*w*4:], row)
		}
	case ports.FormatBGRx:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				s := y*img.Stride + x*4
				d := (y*w + x) * 4
				dst[d+0] = img.Pix[s+2]
				dst[d+1] = img.Pix[s+1]
				dst[d+2] = img.Pix[s+0]
				dst[d+3] = 0xff
			}
		}
	case ports.FormatRGB:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				s := y*img.Stride + x*4
				d := (y*w + x) * 3
				dst[d+0] = img.Pix[s+0]
				dst[d+1] = img.Pix[s+1]
				dst[d+2] = img.Pix[s+2]
			}
		}
	}
}

func snapshotCommand() *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Render a single frame of the scene to PNG.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: "Output PNG file path."},
			&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Value: 640, Usage: "Frame width in pixels."},
			&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Value: 360, Usage: "Frame height in pixels."},
			&cli.Float64Flag{Name: "time", Aliases: []string{"t"}, Value: 0, Usage: "Scene time in seconds."},
			&cli.Float64Flag{Name: "fps", Value: 30, Usage: "Frame rate used to derive the frame index."},
		},
		Action: runSnapshot,
	}
}

func runSnapshot(c *cli.Context) error {
	width := c.Int("width")
	height := c.Int("height")
	t := c.Float64("time")
	index := int(t * c.Float64("fps"))

	src := ggsource.New(width, height)
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	if err := src.Render(index, t, canvas); err != nil {
		return fmt.Errorf("render snapshot: %w", err)
	}

	f, err := os.Create(c.String("output"))
	if err != nil {
		return fmt.Errorf("create %s: %w", c.String("output"), err)
	}
	defer f.Close()

	if err := png.Encode(f, canvas); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	fmt.Println(l10n.F("Snapshot saved to %s", c.String("output")))
	return nil
}

// applyOverrides copies explicitly set CLI flags over the loaded config.
func applyOverrides(c *cli.Context, cfg *config.Config) {
	if c.IsSet("width") {
		cfg.Width = c.Int("width")
	}
	if c.IsSet("height") {
		cfg.Height = c.Int("height")
	}
	if c.IsSet("fps") {
		cfg.FPS = c.Float64("fps")
	}
	if c.IsSet("duration") {
		cfg.DurationS = c.Float64("duration")
	}
	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	if c.IsSet("pool-depth") {
		cfg.PoolDepth = c.Int("pool-depth")
	}
	if c.IsSet("quality") {
		cfg.Quality = c.Int("quality")
	}
	if c.IsSet("bitrate") {
		cfg.Bitrate = c.Int("bitrate")
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
}
