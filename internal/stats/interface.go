package stats

import "context"

// Recorder accumulates per-user usage counters. Recording failures are
// advisory: callers log them and carry on with delivery.
type Recorder interface {
	RecordTranscription(ctx context.Context, userID int64, username string, chatID int64, speechSeconds int) error
	RecordSummary(ctx context.Context, userID int64, chatID int64) error
	Report(ctx context.Context, chatID int64) (string, error)
}
