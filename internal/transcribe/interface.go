package transcribe

import (
	"context"
	"fmt"
)

// Segment is one timestamped slice of recognized speech, in engine order.
type Segment struct {
	StartMs int64
	EndMs   int64
	Text    string
}

// Engine converts a waveform file into an ordered sequence of segments.
// Implementations must be safe for concurrent use; the delivery layer
// interleaves requests without serializing engine calls.
type Engine interface {
	Transcribe(ctx context.Context, wavPath string) ([]Segment, error)
}

// EngineError wraps a speech-recognition failure.
type EngineError struct {
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("transcription engine: %v", e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }
