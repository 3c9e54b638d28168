package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/nguyentantai21042004/transcript-flow/internal/chat"
	"github.com/nguyentantai21042004/transcript-flow/internal/export"
	"github.com/nguyentantai21042004/transcript-flow/internal/store"
	"github.com/nguyentantai21042004/transcript-flow/internal/summarize"
	"github.com/nguyentantai21042004/transcript-flow/internal/transcript"
)

// HandleCallback services one press of an inline control: navigation,
// summary toggle, full-text toggle, or document export. Every state change
// is written back as a whole-record Put; failures after the record exists
// never roll back stored transcript state.
func (c *implController) HandleCallback(ctx context.Context, cb *chat.CallbackQuery) error {
	if err := c.chat.AnswerCallback(ctx, cb.ID); err != nil {
		c.logger.Warn(ctx, "Answer callback failed: %v", err)
	}

	payload, err := decodePayload(cb.Data)
	if err != nil {
		c.editWithRetry(ctx, cb.Message, msgInvalidRequest, nil)
		return err
	}

	rec, err := c.store.Get(ctx, payload.RecordID)
	if errors.Is(err, store.ErrNotFound) {
		c.editWithRetry(ctx, cb.Message, msgRecordExpired, nil)
		return fmt.Errorf("%w: %s", ErrRecordExpired, payload.RecordID)
	}
	if err != nil {
		return fmt.Errorf("load record %s: %w", payload.RecordID, err)
	}

	anchor := chat.MessageRef{ChatID: rec.ChatID, MessageID: rec.MessageID}

	switch payload.Action {
	case ActionNavigate:
		return c.showPage(ctx, anchor, rec, payload.Page)
	case ActionFullText:
		return c.showPage(ctx, anchor, rec, rec.CurrentPage)
	case ActionSummary:
		return c.showSummary(ctx, anchor, rec, cb.From)
	case ActionExport:
		return c.exportDocument(ctx, rec)
	default:
		return &DecodeError{Data: cb.Data, Reason: "unhandled action"}
	}
}

// showPage renders one page of the full transcript. The target page is
// clamped into [0, total); stepping past either edge re-renders the edge
// page rather than erroring. A page-budget change since the record was
// written triggers deterministic re-pagination first.
func (c *implController) showPage(ctx context.Context, anchor chat.MessageRef, rec store.Record, target int) error {
	rec, pages := c.repaginate(rec)

	if target < 0 {
		target = 0
	}
	if target > rec.TotalPages-1 {
		target = rec.TotalPages - 1
	}

	rec.CurrentPage = target
	rec.View = store.ViewFull

	if err := c.store.Put(ctx, rec.ID, rec, c.ttl()); err != nil {
		return fmt.Errorf("persist page state: %w", err)
	}

	return c.editWithRetry(ctx, anchor, pageText(pages, target), fullKeyboard(rec))
}

// showSummary renders the stored summary, generating one first when absent.
func (c *implController) showSummary(ctx context.Context, anchor chat.MessageRef, rec store.Record, from chat.User) error {
	if rec.Summary == "" {
		summary, err := c.generateSummary(ctx, anchor, rec)
		if err != nil {
			return err
		}
		if summary == "" {
			// Engine declined (too short); record stays untouched
			return nil
		}
		rec.Summary = summary
		if c.stats != nil {
			if err := c.stats.RecordSummary(ctx, from.ID, rec.ChatID); err != nil {
				c.logger.Warn(ctx, "Usage accounting failed: %v", err)
			}
		}
	}

	rec.View = store.ViewSummary
	if err := c.store.Put(ctx, rec.ID, rec, c.ttl()); err != nil {
		return fmt.Errorf("persist summary state: %w", err)
	}

	return c.editWithRetry(ctx, anchor, summaryText(rec.Summary), summaryKeyboard(rec))
}

// generateSummary runs the summarization engine with user feedback up front,
// since its latency is unbounded from our perspective. Engine failures map
// to distinct user-facing notices and never mutate the stored record. An
// empty return with nil error means "declined, already told the user".
func (c *implController) generateSummary(ctx context.Context, anchor chat.MessageRef, rec store.Record) (string, error) {
	if err := c.editWithRetry(ctx, anchor, msgSummarizing, nil); err != nil {
		c.logger.Warn(ctx, "Could not show working status: %v", err)
	}

	summary, err := c.summarizer.Summarize(ctx, rec.FullText)
	switch {
	case err == nil:
		return summary, nil
	case errors.Is(err, summarize.ErrTooShort):
		c.editWithRetry(ctx, anchor, msgTooShortToSummarize, fullKeyboard(rec))
		return "", nil
	case errors.Is(err, summarize.ErrTimeout):
		c.editWithRetry(ctx, anchor, msgSummaryTimeout, fullKeyboard(rec))
		return "", err
	case errors.Is(err, summarize.ErrConnectivity):
		c.editWithRetry(ctx, anchor, msgSummaryUnreachable, fullKeyboard(rec))
		return "", err
	default:
		c.editWithRetry(ctx, anchor, msgSummaryFailed, fullKeyboard(rec))
		return "", err
	}
}

func (c *implController) exportDocument(ctx context.Context, rec store.Record) error {
	data, err := export.TranscriptDocx("Transcript", rec.FullText)
	if err != nil {
		return fmt.Errorf("build document: %w", err)
	}

	if _, err := c.chat.SendDocument(ctx, rec.ChatID, "transcript.docx", data, msgDocumentCaption); err != nil {
		return fmt.Errorf("send document: %w", err)
	}
	return nil
}

// repaginate recomputes page boundaries when the active budget differs from
// the one the record was written with, clamping the current page into the
// new bounds. Pagination is deterministic, so an unchanged budget reproduces
// the exact boundaries the record was created with.
func (c *implController) repaginate(rec store.Record) (store.Record, []string) {
	budget := c.config().PageBudget()
	pages := transcript.Paginate(rec.FullText, budget)

	if budget != rec.PageBudget {
		rec.PageBudget = budget
		rec.TotalPages = len(pages)
		if rec.CurrentPage > rec.TotalPages-1 {
			rec.CurrentPage = rec.TotalPages - 1
		}
	}
	return rec, pages
}
