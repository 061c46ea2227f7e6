package mp4pipeline

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"

	"github.com/user/framecast/pkg/ports"
)

// FindFFmpeg searches for ffmpeg in FFMPEG_PATH, PATH and common
// install locations.
func FindFFmpeg() (string, error) {
	if envPath := os.Getenv("FFMPEG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: FFMPEG_PATH %s not found", ErrFFmpegNotFound, envPath)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var commonPaths []string
	switch runtime.GOOS {
	case "windows":
		commonPaths = []string{
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
		}
	case "darwin":
		commonPaths = []string{
			"/opt/homebrew/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/usr/bin/ffmpeg",
		}
	default:
		commonPaths = []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/snap/bin/ffmpeg",
		}
	}
	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", ErrFFmpegNotFound
}

// ffmpegPixFmt maps a pixel format to ffmpeg's rawvideo pix_fmt name.
func ffmpegPixFmt(f ports.PixelFormat) string {
	switch f {
	case ports.FormatBGRx:
		return "bgr0"
	case ports.FormatRGBA:
		return "rgba"
	case ports.FormatRGB:
		return "rgb24"
	default:
		return ""
	}
}

// encoderProc is a running ffmpeg child encoding raw frames from stdin
// into an Annex-B H.264 elementary stream on stdout.
type encoderProc struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer

	outMu  sync.Mutex
	outBuf bytes.Buffer
	outErr error
	outWg  sync.WaitGroup
}

// startEncoder launches ffmpeg for the given session parameters.
// Access-unit delimiters are requested so the muxer can split the stream
// into frames without parsing slice headers.
func startEncoder(ffmpegPath string, cfg ports.PipelineConfig) (*encoderProc, error) {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", ffmpegPixFmt(cfg.Format),
		"-s", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"-r", fmt.Sprintf("%.3f", cfg.FrameRate),
		"-i", "pipe:0",
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		"-x264-params", "aud=1",
	}

	if cfg.Quality > 0 && cfg.Quality <= 63 {
		// Convert the 0-63 scale to x264's CRF (0-51).
		crf := cfg.Quality * 51 / 63
		if crf > 51 {
			crf = 51
		}
		args = append(args, "-crf", fmt.Sprintf("%d", crf))
	} else {
		args = append(args, "-crf", "23")
	}
	if cfg.Bitrate > 0 {
		args = append(args, "-b:v", fmt.Sprintf("%dk", cfg.Bitrate))
	}

	args = append(args,
		"-profile:v", "baseline",
		"-level", "3.1",
		"-f", "h264",
		"pipe:1",
	)

	p := &encoderProc{cmd: exec.Command(ffmpegPath, args...)}
	p.cmd.Stderr = &p.stderr

	stdin, err := p.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("mp4pipeline: stdin pipe: %w", err)
	}
	p.stdin = stdin

	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("mp4pipeline: stdout pipe: %w", err)
	}

	if err := p.cmd.Start(); err != nil {
		return nil, fmt.Errorf("mp4pipeline: start ffmpeg: %w", err)
	}

	// Drain stdout concurrently so the encoder never blocks on the pipe.
	p.outWg.Add(1)
	go func() {
		defer p.outWg.Done()
		_, err := io.Copy(&p.outBuf, stdout)
		p.outMu.Lock()
		p.outErr = err
		p.outMu.Unlock()
	}()

	return p, nil
}

// writeFrame feeds one raw frame to the encoder.
func (p *encoderProc) writeFrame(data []byte) error {
	if _, err := p.stdin.Write(data); err != nil {
		return fmt.Errorf("mp4pipeline: write frame: %w", err)
	}
	return nil
}

// finish closes stdin, waits for ffmpeg to flush, and returns the
// collected elementary stream.
func (p *encoderProc) finish() ([]byte, error) {
	p.stdin.Close()
	if err := p.cmd.Wait(); err != nil {
		return nil, fmt.Errorf("mp4pipeline: ffmpeg failed: %w\nstderr: %s", err, p.stderr.String())
	}
	p.outWg.Wait()
	p.outMu.Lock()
	defer p.outMu.Unlock()
	if p.outErr != nil {
		return nil, fmt.Errorf("mp4pipeline: read encoder output: %w", p.outErr)
	}
	return p.outBuf.Bytes(), nil
}

// kill terminates the child after a frame write failed. The stream is
// already lost at this point, so output is discarded.
func (p *encoderProc) kill() {
	p.stdin.Close()
	if p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	p.cmd.Wait()
	p.outWg.Wait()
}
