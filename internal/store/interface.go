package store

import (
	"context"
	"errors"
	"time"
)

// View is the content mode currently rendered for a record.
type View string

const (
	ViewFull    View = "full"
	ViewSummary View = "summary"
)

// Record is the ephemeral state of one transcription session. Values are
// treated as immutable snapshots: every mutation builds a new Record and
// writes it wholesale via Put, never partial field updates.
type Record struct {
	ID          string `json:"id"`
	ChatID      int64  `json:"chat_id"`
	MessageID   int    `json:"message_id"`
	FullText    string `json:"full_text"`
	Summary     string `json:"summary,omitempty"`
	CurrentPage int    `json:"current_page"`
	TotalPages  int    `json:"total_pages"`
	PageBudget  int    `json:"page_budget"`
	View        View   `json:"view"`
}

// ErrNotFound is returned by Get for absent or expired keys. Callers must
// treat it as terminal for the record; no record is ever synthesized.
var ErrNotFound = errors.New("record not found")

// Store is a key/value store with per-key expiration. Every Put resets the
// ttl window; the ttl is time since last mutation, not time since creation.
type Store interface {
	Put(ctx context.Context, id string, rec Record, ttl time.Duration) error
	Get(ctx context.Context, id string) (Record, error)
	// PutAlias maps an auxiliary key (e.g. a media content hash) to a record id.
	PutAlias(ctx context.Context, key, id string, ttl time.Duration) error
	GetAlias(ctx context.Context, key string) (string, error)
	Close() error
}
