package delivery

import (
	"context"
	"errors"

	"github.com/nguyentantai21042004/transcript-flow/internal/chat"
	"github.com/nguyentantai21042004/transcript-flow/internal/config"
)

// Controller drives one transcription request from raw media to a delivered,
// navigable, summarizable transcript, and services the interactive controls
// attached to it.
type Controller interface {
	HandleTranscription(ctx context.Context, msg *chat.Message) error
	HandleCallback(ctx context.Context, cb *chat.CallbackQuery) error
	// UpdateConfig swaps the active configuration; records paginated under an
	// older page budget are re-paginated on their next render.
	UpdateConfig(cfg *config.Config)
}

// ErrRecordExpired is returned when a callback references a record that has
// lapsed out of the store. Terminal for that record.
var ErrRecordExpired = errors.New("transcript record expired")
