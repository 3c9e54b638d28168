package summarize

import (
	"context"
	"errors"
	"fmt"
)

// Summarizer condenses a transcript into a shorter text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

var (
	// ErrTooShort signals the input is below the worth-summarizing threshold.
	ErrTooShort = errors.New("text too short to summarize")
	// ErrTimeout signals the engine did not answer in time.
	ErrTimeout = errors.New("summarization timed out")
	// ErrConnectivity signals the engine was unreachable.
	ErrConnectivity = errors.New("summarization service unreachable")
)

// SummarizeError wraps any other summarization failure.
type SummarizeError struct {
	Err error
}

func (e *SummarizeError) Error() string {
	return fmt.Sprintf("summarize: %v", e.Err)
}

func (e *SummarizeError) Unwrap() error { return e.Err }
