package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nguyentantai21042004/transcript-flow/internal/config"
	"github.com/nguyentantai21042004/transcript-flow/internal/logger"
	"github.com/nguyentantai21042004/transcript-flow/pkg/executor"
)

type (
	implEngine struct {
		cfg      config.WhisperConfig
		tempDir  string
		executor executor.Executor
		logger   logger.Logger
	}

	// JSON transcript as emitted by whisperx-compatible CLIs. Timestamps are
	// fractional seconds; decimal keeps the ms conversion exact.
	jsonTranscript struct {
		Segments []jsonSegment `json:"segments"`
	}

	jsonSegment struct {
		Text  string          `json:"text"`
		Start decimal.Decimal `json:"start"`
		End   decimal.Decimal `json:"end"`
	}
)

// New creates an Engine that shells out to the configured whisper binary.
// Construct once at startup and inject; the loaded model is amortized by the
// external process cache, not by process-global state here.
func New(cfg config.WhisperConfig, tempDir string, exec executor.Executor, log logger.Logger) Engine {
	return &implEngine{
		cfg:      cfg,
		tempDir:  tempDir,
		executor: exec,
		logger:   log,
	}
}

// Transcribe runs the whisper binary over wavPath and parses the JSON
// transcript it writes next to the audio.
func (e *implEngine) Transcribe(ctx context.Context, wavPath string) ([]Segment, error) {
	outDir, err := os.MkdirTemp(e.tempDir, "transcribe-*")
	if err != nil {
		return nil, &EngineError{Err: fmt.Errorf("create output dir: %w", err)}
	}
	defer os.RemoveAll(outDir)

	args := []string{
		wavPath,
		"--model", e.cfg.ModelPath,
		"--output_dir", outDir,
		"--output_format", "json",
		"--threads", strconv.Itoa(e.cfg.Threads),
	}
	if e.cfg.Language != "" && e.cfg.Language != "auto" {
		args = append(args, "--language", e.cfg.Language)
	}
	if e.cfg.Prompt != "" {
		args = append(args, "--initial_prompt", e.cfg.Prompt)
	}

	e.logger.Debug(ctx, "Transcribing %s with %d threads", wavPath, e.cfg.Threads)

	if _, err := e.executor.Execute(ctx, e.cfg.BinaryPath, args...); err != nil {
		return nil, &EngineError{Err: err}
	}

	base := strings.TrimSuffix(filepath.Base(wavPath), filepath.Ext(wavPath))
	jsonPath := filepath.Join(outDir, base+".json")

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, &EngineError{Err: fmt.Errorf("read transcript %s: %w", jsonPath, err)}
	}

	return parseTranscript(data)
}

func parseTranscript(data []byte) ([]Segment, error) {
	var t jsonTranscript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, &EngineError{Err: fmt.Errorf("parse transcript: %w", err)}
	}

	segments := make([]Segment, 0, len(t.Segments))
	for _, s := range t.Segments {
		segments = append(segments, Segment{
			StartMs: s.Start.Mul(decimal.NewFromInt(1000)).IntPart(),
			EndMs:   s.End.Mul(decimal.NewFromInt(1000)).IntPart(),
			Text:    s.Text,
		})
	}
	return segments, nil
}
