package mp4pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/user/framecast/pkg/adapters/logger"
	"github.com/user/framecast/pkg/mocks"
	"github.com/user/framecast/pkg/ports"
)

// fakeFFmpeg points FFMPEG_PATH at a plain file so New succeeds without
// a real encoder install. Tests using it must not reach startEncoder.
func fakeFFmpeg(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\ncat >/dev/null\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FFMPEG_PATH", path)
}

func validConfig() ports.PipelineConfig {
	return ports.PipelineConfig{
		Format:     ports.FormatRGBA,
		Width:      100,
		Height:     50,
		FrameRate:  30,
		OutputPath: "out.mp4",
	}
}

func TestNew_Validation(t *testing.T) {
	fakeFFmpeg(t)
	cases := []struct {
		name string
		mod  func(*ports.PipelineConfig)
	}{
		{"zero width", func(c *ports.PipelineConfig) { c.Width = 0 }},
		{"odd width", func(c *ports.PipelineConfig) { c.Width = 101 }},
		{"odd height", func(c *ports.PipelineConfig) { c.Height = 51 }},
		{"zero frame rate", func(c *ports.PipelineConfig) { c.FrameRate = 0 }},
		{"bad format", func(c *ports.PipelineConfig) { c.Format = ports.PixelFormat(99) }},
		{"empty output path", func(c *ports.PipelineConfig) { c.OutputPath = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mod(&cfg)
			if _, err := New(cfg, mocks.NewFileSystem(), logger.NewNoop()); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNew_Valid(t *testing.T) {
	fakeFFmpeg(t)
	p, err := New(validConfig(), mocks.NewFileSystem(), logger.NewNoop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil {
		t.Fatal("expected a pipeline")
	}
}

func TestRun_WithoutPull(t *testing.T) {
	fakeFFmpeg(t)
	p, err := New(validConfig(), mocks.NewFileSystem(), logger.NewNoop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Run(); !errors.Is(err, ErrNoPull) {
		t.Errorf("expected ErrNoPull, got %v", err)
	}
}

func TestRun_CloseBeforePlay(t *testing.T) {
	fakeFFmpeg(t)
	fs := mocks.NewFileSystem()
	p, err := New(validConfig(), fs, logger.NewNoop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.SetPull(func(dst []byte) (time.Duration, bool) { return 0, true })

	done := make(chan error, 1)
	go func() { done <- p.Run() }()

	if err := p.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean return, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}

	// Nothing was encoded; no file may appear.
	if exists, _ := fs.Exists("out.mp4"); exists {
		t.Error("no output expected when closed before play")
	}
}

func TestRun_PlayAndCloseBothPending(t *testing.T) {
	// Play then Close can both have fired before Run reaches its gate.
	// The played session must still consume its stream instead of
	// returning as if it never started.
	fakeFFmpeg(t)
	p, err := New(validConfig(), mocks.NewFileSystem(), logger.NewNoop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pulled := false
	p.SetPull(func(dst []byte) (time.Duration, bool) {
		pulled = true
		return 0, true
	})

	if err := p.Play(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := p.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pulled {
		t.Error("queued frames lost: pull was never invoked for a played session")
	}
}

func TestClose_Idempotent(t *testing.T) {
	fakeFFmpeg(t)
	p, err := New(validConfig(), mocks.NewFileSystem(), logger.NewNoop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got %v", err)
	}
}

func TestFindFFmpeg_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte{}, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FFMPEG_PATH", path)

	got, err := FindFFmpeg()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != path {
		t.Errorf("got %s, want %s", got, path)
	}
}

func TestFindFFmpeg_EnvMissing(t *testing.T) {
	t.Setenv("FFMPEG_PATH", filepath.Join(t.TempDir(), "nope"))
	if _, err := FindFFmpeg(); !errors.Is(err, ErrFFmpegNotFound) {
		t.Errorf("expected ErrFFmpegNotFound, got %v", err)
	}
}

func TestFfmpegPixFmt(t *testing.T) {
	cases := []struct {
		format ports.PixelFormat
		want   string
	}{
		{ports.FormatBGRx, "bgr0"},
		{ports.FormatRGBA, "rgba"},
		{ports.FormatRGB, "rgb24"},
		{ports.PixelFormat(99), ""},
	}
	for _, tc := range cases {
		if got := ffmpegPixFmt(tc.format); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.format, got, tc.want)
		}
	}
}
