package mp4pipeline

import "errors"

var (
	// ErrNoPull is returned by Run when no pull callback was registered.
	ErrNoPull = errors.New("mp4pipeline: no pull callback registered")

	// ErrNoFrames is returned when trying to build an MP4 with no frames.
	ErrNoFrames = errors.New("mp4pipeline: no frames to mux")

	// ErrFFmpegNotFound is returned at construction when no ffmpeg
	// executable can be located.
	ErrFFmpegNotFound = errors.New("mp4pipeline: ffmpeg not found")
)
