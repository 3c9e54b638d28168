package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryPutGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	rec := Record{
		ID:          "abc123",
		ChatID:      42,
		MessageID:   7,
		FullText:    "hello world",
		CurrentPage: 0,
		TotalPages:  1,
		PageBudget:  4090,
		View:        ViewFull,
	}

	if err := s.Put(ctx, rec.ID, rec, time.Hour); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != rec {
		t.Errorf("Get() = %+v, want %+v", got, rec)
	}
}

func TestMemoryGetAbsent(t *testing.T) {
	s := NewMemory()

	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemory().(*memoryStore)

	now := time.Now()
	s.now = func() time.Time { return now }

	if err := s.Put(ctx, "id1", Record{ID: "id1"}, time.Minute); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if _, err := s.Get(ctx, "id1"); err != nil {
		t.Fatalf("Get() before expiry error = %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := s.Get(ctx, "id1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after expiry error = %v, want ErrNotFound", err)
	}
}

func TestMemoryPutResetsTTL(t *testing.T) {
	ctx := context.Background()
	s := NewMemory().(*memoryStore)

	now := time.Now()
	s.now = func() time.Time { return now }

	if err := s.Put(ctx, "id1", Record{ID: "id1"}, time.Minute); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	// Rewrite just before expiry; the window restarts from the rewrite
	now = now.Add(50 * time.Second)
	if err := s.Put(ctx, "id1", Record{ID: "id1", CurrentPage: 1}, time.Minute); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	now = now.Add(50 * time.Second)
	got, err := s.Get(ctx, "id1")
	if err != nil {
		t.Fatalf("Get() after rewrite error = %v", err)
	}
	if got.CurrentPage != 1 {
		t.Errorf("Get() CurrentPage = %d, want 1", got.CurrentPage)
	}
}

func TestMemoryAlias(t *testing.T) {
	ctx := context.Background()
	s := NewMemory().(*memoryStore)

	now := time.Now()
	s.now = func() time.Time { return now }

	if err := s.PutAlias(ctx, "media:deadbeef", "rec1", time.Minute); err != nil {
		t.Fatalf("PutAlias() error = %v", err)
	}

	id, err := s.GetAlias(ctx, "media:deadbeef")
	if err != nil {
		t.Fatalf("GetAlias() error = %v", err)
	}
	if id != "rec1" {
		t.Errorf("GetAlias() = %q, want %q", id, "rec1")
	}

	now = now.Add(2 * time.Minute)
	if _, err := s.GetAlias(ctx, "media:deadbeef"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAlias() after expiry error = %v, want ErrNotFound", err)
	}
}
