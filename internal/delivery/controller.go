package delivery

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"lukechampine.com/blake3"

	"github.com/nguyentantai21042004/transcript-flow/internal/chat"
	"github.com/nguyentantai21042004/transcript-flow/internal/media"
	"github.com/nguyentantai21042004/transcript-flow/internal/store"
	"github.com/nguyentantai21042004/transcript-flow/internal/transcript"
)

// HandleTranscription drives one voice/video-note message to a delivered
// transcript: download, extract, transcribe, paginate, persist, render.
// Failures before the record exists are terminal for the request and leave
// no partial state behind.
func (c *implController) HandleTranscription(ctx context.Context, msg *chat.Message) error {
	att, kind, err := attachmentOf(msg)
	if err != nil {
		return err
	}

	c.logger.Info(ctx, "Transcription request from @%s (%s, %s)", msg.From.Username, kind, att.Duration)
	started := time.Now()

	workDir, err := os.MkdirTemp(c.config().Paths.Temp, "request-*")
	if err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	mediaPath, err := c.chat.DownloadFile(ctx, att.FileID, workDir)
	if err != nil {
		c.apologize(ctx, msg.ChatID)
		return fmt.Errorf("download attachment: %w", err)
	}

	wavPath, err := c.extractor.Extract(ctx, media.Input{Kind: kind, Path: mediaPath, Duration: att.Duration})
	if err != nil {
		var extractionErr *media.ExtractionError
		if errors.As(err, &extractionErr) {
			c.apologize(ctx, msg.ChatID)
		}
		return err
	}

	// Provisional feedback before the (slow) engine call; this message
	// becomes the anchor every later edit targets.
	anchor, err := c.chat.SendMessage(ctx, msg.ChatID, msgPlaceholder, nil)
	if err != nil {
		return fmt.Errorf("send placeholder: %w", err)
	}

	fullText, err := c.assembleTranscript(ctx, mediaPath, wavPath)
	if err != nil {
		c.editWithRetry(ctx, anchor, msgTranscriptionFailed, nil)
		return err
	}

	if strings.TrimSpace(fullText) == "" {
		// Empty transcripts are not persisted or paginated
		return c.editWithRetry(ctx, anchor, msgNothingToTranscribe, nil)
	}

	budget := c.config().PageBudget()
	pages := transcript.Paginate(fullText, budget)

	rec := store.Record{
		ID:          newRecordID(),
		ChatID:      anchor.ChatID,
		MessageID:   anchor.MessageID,
		FullText:    fullText,
		CurrentPage: 0,
		TotalPages:  len(pages),
		PageBudget:  budget,
		View:        store.ViewFull,
	}

	if err := c.store.Put(ctx, rec.ID, rec, c.ttl()); err != nil {
		c.editWithRetry(ctx, anchor, msgTranscriptionFailed, nil)
		return fmt.Errorf("persist record: %w", err)
	}

	if err := c.rememberMedia(ctx, mediaPath, rec.ID); err != nil {
		c.logger.Warn(ctx, "Media dedup index write failed: %v", err)
	}

	if err := c.editWithRetry(ctx, anchor, pageText(pages, 0), fullKeyboard(rec)); err != nil {
		// The record is already persisted; controls recover on next interaction
		return err
	}

	c.recordUsage(ctx, msg, att)
	c.logger.Info(ctx, "Delivered %d page(s) for @%s in %s", len(pages), msg.From.Username, time.Since(started).Round(time.Millisecond))
	return nil
}

// assembleTranscript returns the stored transcript for previously seen media,
// or runs the engine and concatenates its segments in yielded order.
func (c *implController) assembleTranscript(ctx context.Context, mediaPath, wavPath string) (string, error) {
	if text, ok := c.recallMedia(ctx, mediaPath); ok {
		c.logger.Info(ctx, "Media seen before, reusing stored transcript")
		return text, nil
	}

	segments, err := c.engine.Transcribe(ctx, wavPath)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, seg := range segments {
		b.WriteString(seg.Text)
	}
	return b.String(), nil
}

// recallMedia checks the dedup index for a live record holding this exact
// media content.
func (c *implController) recallMedia(ctx context.Context, mediaPath string) (string, bool) {
	hash, err := hashFile(mediaPath)
	if err != nil {
		c.logger.Warn(ctx, "Media hash failed: %v", err)
		return "", false
	}

	id, err := c.store.GetAlias(ctx, mediaKey(hash))
	if err != nil {
		return "", false
	}

	rec, err := c.store.Get(ctx, id)
	if err != nil {
		return "", false
	}
	return rec.FullText, true
}

func (c *implController) rememberMedia(ctx context.Context, mediaPath, recordID string) error {
	hash, err := hashFile(mediaPath)
	if err != nil {
		return err
	}
	return c.store.PutAlias(ctx, mediaKey(hash), recordID, c.ttl())
}

// editWithRetry performs one edit, honoring a single rate-limit signal by
// sleeping exactly the mandated duration and retrying once. A second
// rate-limit on the retry is logged, not retried again.
func (c *implController) editWithRetry(ctx context.Context, ref chat.MessageRef, text string, kb *chat.Keyboard) error {
	err := c.chat.EditMessageText(ctx, ref, text, kb)

	var rl *chat.RateLimitedError
	if !errors.As(err, &rl) {
		return err
	}

	c.logger.Warn(ctx, "Rate limited editing message %d, waiting %s", ref.MessageID, rl.RetryAfter)
	c.sleep(rl.RetryAfter)

	err = c.chat.EditMessageText(ctx, ref, text, kb)
	if errors.As(err, &rl) {
		c.logger.Error(ctx, "Still rate limited after waiting, giving up on message %d", ref.MessageID)
	}
	return err
}

func (c *implController) apologize(ctx context.Context, chatID int64) {
	if _, err := c.chat.SendMessage(ctx, chatID, msgExtractionFailed, nil); err != nil {
		c.logger.Warn(ctx, "Could not deliver failure notice: %v", err)
	}
}

func (c *implController) recordUsage(ctx context.Context, msg *chat.Message, att *chat.Attachment) {
	if c.stats == nil {
		return
	}
	seconds := int(att.Duration / time.Second)
	if err := c.stats.RecordTranscription(ctx, msg.From.ID, msg.From.Username, msg.ChatID, seconds); err != nil {
		c.logger.Warn(ctx, "Usage accounting failed: %v", err)
	}
}

// attachmentOf maps the message onto the tagged media variant. Exactly one
// playable attachment must be present.
func attachmentOf(msg *chat.Message) (*chat.Attachment, media.Kind, error) {
	switch {
	case msg.Voice != nil:
		return msg.Voice, media.KindVoice, nil
	case msg.VideoNote != nil:
		return msg.VideoNote, media.KindVideoNote, nil
	default:
		return nil, 0, fmt.Errorf("message %d carries no playable attachment", msg.MessageID)
	}
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open media for hashing: %w", err)
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash media: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func mediaKey(hash string) string {
	return "media:" + hash
}

// newRecordID returns a 32-char hex token, the opaque id of one session.
func newRecordID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
