package chat

import (
	"context"
	"fmt"
	"time"
)

// Client defines the interface to the chat platform. Implementations must
// surface flood-control responses as *RateLimitedError so callers can honor
// the mandated wait.
type Client interface {
	// Updates delivers inbound events until ctx is cancelled.
	Updates(ctx context.Context) <-chan Update
	SendMessage(ctx context.Context, chatID int64, text string, kb *Keyboard) (MessageRef, error)
	EditMessageText(ctx context.Context, ref MessageRef, text string, kb *Keyboard) error
	DeleteMessage(ctx context.Context, ref MessageRef) error
	SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) (MessageRef, error)
	AnswerCallback(ctx context.Context, callbackID string) error
	// DownloadFile fetches a platform file into destDir and returns its path.
	DownloadFile(ctx context.Context, fileID, destDir string) (string, error)
}

// Update is one inbound event: exactly one of Message or Callback is set.
type Update struct {
	Message  *Message
	Callback *CallbackQuery
}

type Message struct {
	ChatID    int64
	MessageID int
	From      User
	Text      string
	Voice     *Attachment
	VideoNote *Attachment
}

type User struct {
	ID       int64
	Username string
}

// Attachment is a playable media attachment with its nominal duration.
type Attachment struct {
	FileID   string
	Duration time.Duration
}

// MessageRef identifies a delivered message for later edits.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

type CallbackQuery struct {
	ID      string
	From    User
	Message MessageRef
	Data    string
}

type Keyboard struct {
	Rows [][]Button
}

type Button struct {
	Text string
	Data string
}

// RateLimitedError is returned when the platform rejects a call with a
// flood-control response carrying a mandatory wait duration.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}
