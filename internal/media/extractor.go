package media

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/nguyentantai21042004/transcript-flow/internal/logger"
	"github.com/nguyentantai21042004/transcript-flow/pkg/executor"
)

type implExtractor struct {
	executor executor.Executor
	logger   logger.Logger
}

// New creates a new Extractor instance backed by ffmpeg
func New(exec executor.Executor, log logger.Logger) Extractor {
	return &implExtractor{
		executor: exec,
		logger:   log,
	}
}

// Extract decodes the attachment to 16kHz mono PCM WAV, the input format the
// speech engine expects. Works for both voice notes (ogg/opus) and video
// notes (mp4), since ffmpeg drops the video stream either way.
func (e *implExtractor) Extract(ctx context.Context, in Input) (string, error) {
	wavPath := strings.TrimSuffix(in.Path, filepath.Ext(in.Path)) + "_16k.wav"

	e.logger.Debug(ctx, "Extracting audio from %s attachment: %s", in.Kind, in.Path)

	// -vn: drop video
	// -ar 16000 -ac 1: 16kHz mono, optimal for Whisper
	// -c:a pcm_s16le: uncompressed 16-bit PCM
	args := []string{
		"-i", in.Path,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-y",
		wavPath,
	}

	if _, err := e.executor.Execute(ctx, "ffmpeg", args...); err != nil {
		return "", &ExtractionError{Path: in.Path, Err: err}
	}

	e.logger.Debug(ctx, "Audio extracted: %s", wavPath)
	return wavPath, nil
}
