package media

import (
	"context"
	"fmt"
	"time"
)

// Kind tags the attachment variant the platform delivered. The extractor
// consumes it exhaustively; there is no runtime inspection of message shapes.
type Kind int

const (
	KindVoice Kind = iota
	KindVideoNote
)

func (k Kind) String() string {
	switch k {
	case KindVoice:
		return "voice"
	case KindVideoNote:
		return "video_note"
	default:
		return "unknown"
	}
}

// Input is one downloaded media attachment awaiting audio extraction.
type Input struct {
	Kind     Kind
	Path     string
	Duration time.Duration
}

// Extractor produces a decoded waveform file from an attachment
type Extractor interface {
	Extract(ctx context.Context, in Input) (string, error)
}

// ExtractionError indicates no usable audio track could be derived.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("no usable audio in %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
