package delivery

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nguyentantai21042004/transcript-flow/internal/chat"
	"github.com/nguyentantai21042004/transcript-flow/internal/store"
	"github.com/nguyentantai21042004/transcript-flow/internal/summarize"
)

func seedRecord(t *testing.T, s *spyStore, rec store.Record) store.Record {
	t.Helper()
	if rec.ID == "" {
		rec.ID = newRecordID()
	}
	if rec.View == "" {
		rec.View = store.ViewFull
	}
	if err := s.Put(context.Background(), rec.ID, rec, time.Hour); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return rec
}

func callbackFor(rec store.Record, data string) *chat.CallbackQuery {
	return &chat.CallbackQuery{
		ID:      "cb1",
		From:    chat.User{ID: 9, Username: "tester"},
		Message: chat.MessageRef{ChatID: rec.ChatID, MessageID: rec.MessageID},
		Data:    data,
	}
}

func multiPageRecord() store.Record {
	// Three pages under a budget of 4090
	words := strings.TrimSpace(strings.Repeat("word ", 2300)) // ~11.5k chars
	return store.Record{
		ChatID:      42,
		MessageID:   101,
		FullText:    words,
		CurrentPage: 0,
		TotalPages:  3,
		PageBudget:  4090,
	}
}

func TestNavigateAdvancesPage(t *testing.T) {
	ctx := context.Background()
	deps := &controllerDeps{}
	c := newTestController(t, deps)
	rec := seedRecord(t, deps.store, multiPageRecord())

	if err := c.HandleCallback(ctx, callbackFor(rec, encodeNavigate(rec.ID, 1))); err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}

	got, err := deps.store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.CurrentPage != 1 {
		t.Errorf("CurrentPage = %d, want 1", got.CurrentPage)
	}
	if !strings.HasSuffix(deps.chat.lastEdit().text, continuationMark) {
		t.Error("middle page must end with the continuation marker")
	}
}

func TestNavigatePastLastPageIsNoOp(t *testing.T) {
	ctx := context.Background()
	deps := &controllerDeps{}
	c := newTestController(t, deps)

	rec := multiPageRecord()
	rec.CurrentPage = 2
	rec = seedRecord(t, deps.store, rec)

	// A stale button may encode a target beyond the end; clamp, re-render,
	// no error
	if err := c.HandleCallback(ctx, callbackFor(rec, encodeNavigate(rec.ID, 7))); err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}

	got, _ := deps.store.Get(ctx, rec.ID)
	if got.CurrentPage != 2 {
		t.Errorf("CurrentPage = %d, want unchanged 2", got.CurrentPage)
	}
	if deps.chat.editCount() != 1 {
		t.Errorf("edits = %d, want the page re-rendered once", deps.chat.editCount())
	}
	if strings.HasSuffix(deps.chat.lastEdit().text, continuationMark) {
		t.Error("final page must not carry the continuation marker")
	}
}

func TestNavigationBoundsInvariant(t *testing.T) {
	ctx := context.Background()
	deps := &controllerDeps{}
	c := newTestController(t, deps)
	rec := seedRecord(t, deps.store, multiPageRecord())

	// Arbitrary walk, including attempts to step out of range
	for _, target := range []int{1, 2, 5, 0, -3, 2, 1, 99, 0} {
		if err := c.HandleCallback(ctx, callbackFor(rec, encodeNavigate(rec.ID, target))); err != nil {
			t.Fatalf("HandleCallback(nav %d) error = %v", target, err)
		}

		got, err := deps.store.Get(ctx, rec.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.CurrentPage < 0 || got.CurrentPage >= got.TotalPages {
			t.Fatalf("invariant violated after nav %d: page %d of %d", target, got.CurrentPage, got.TotalPages)
		}
	}
}

func TestNavigationKeepsSummary(t *testing.T) {
	ctx := context.Background()
	deps := &controllerDeps{}
	c := newTestController(t, deps)

	rec := multiPageRecord()
	rec.Summary = "an existing summary"
	rec = seedRecord(t, deps.store, rec)

	for _, target := range []int{1, 2, 0} {
		if err := c.HandleCallback(ctx, callbackFor(rec, encodeNavigate(rec.ID, target))); err != nil {
			t.Fatalf("HandleCallback() error = %v", err)
		}
	}

	got, _ := deps.store.Get(ctx, rec.ID)
	if got.Summary != "an existing summary" {
		t.Errorf("Summary = %q, navigation must never clear it", got.Summary)
	}
}

func TestSummarizeSuccess(t *testing.T) {
	ctx := context.Background()
	deps := &controllerDeps{
		summarizer: &fakeSummarizer{summary: "short version"},
	}
	c := newTestController(t, deps)
	rec := seedRecord(t, deps.store, multiPageRecord())

	if err := c.HandleCallback(ctx, callbackFor(rec, encodeSummary(rec.ID))); err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}

	got, _ := deps.store.Get(ctx, rec.ID)
	if got.Summary != "short version" {
		t.Errorf("Summary = %q, want persisted", got.Summary)
	}
	if got.View != store.ViewSummary {
		t.Errorf("View = %q, want summary", got.View)
	}

	// Working status first, then the rendered summary
	if len(deps.chat.edits) != 2 {
		t.Fatalf("edits = %d, want working status + summary", len(deps.chat.edits))
	}
	if deps.chat.edits[0].text != msgSummarizing {
		t.Errorf("first edit = %q, want working status", deps.chat.edits[0].text)
	}
	if !strings.Contains(deps.chat.lastEdit().text, "short version") {
		t.Errorf("summary render = %q", deps.chat.lastEdit().text)
	}
}

func TestSummarizeTooShort(t *testing.T) {
	ctx := context.Background()
	deps := &controllerDeps{
		summarizer: &fakeSummarizer{err: summarize.ErrTooShort},
	}
	c := newTestController(t, deps)
	rec := seedRecord(t, deps.store, multiPageRecord())
	before := deps.store.putCount()

	if err := c.HandleCallback(ctx, callbackFor(rec, encodeSummary(rec.ID))); err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}

	got, _ := deps.store.Get(ctx, rec.ID)
	if got.Summary != "" {
		t.Errorf("Summary = %q, want absent", got.Summary)
	}
	if deps.store.putCount() != before {
		t.Error("declined summary must not rewrite the record")
	}
	if deps.chat.lastEdit().text != msgTooShortToSummarize {
		t.Errorf("edit = %q, want informational notice", deps.chat.lastEdit().text)
	}
}

func TestSummarizeErrorsRenderDistinctMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"timeout", summarize.ErrTimeout, msgSummaryTimeout},
		{"connectivity", summarize.ErrConnectivity, msgSummaryUnreachable},
		{"generic", &summarize.SummarizeError{Err: errors.New("boom")}, msgSummaryFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			deps := &controllerDeps{
				summarizer: &fakeSummarizer{err: tt.err},
			}
			c := newTestController(t, deps)
			rec := seedRecord(t, deps.store, multiPageRecord())

			if err := c.HandleCallback(ctx, callbackFor(rec, encodeSummary(rec.ID))); err == nil {
				t.Fatal("expected the engine failure to surface")
			}

			if deps.chat.lastEdit().text != tt.want {
				t.Errorf("edit = %q, want %q", deps.chat.lastEdit().text, tt.want)
			}

			got, _ := deps.store.Get(ctx, rec.ID)
			if got.Summary != "" {
				t.Error("failed summarization must not mutate the record")
			}
		})
	}
}

func TestExistingSummaryRendersWithoutEngineCall(t *testing.T) {
	ctx := context.Background()
	deps := &controllerDeps{
		summarizer: &fakeSummarizer{summary: "newer summary"},
	}
	c := newTestController(t, deps)

	rec := multiPageRecord()
	rec.Summary = "older summary"
	rec = seedRecord(t, deps.store, rec)

	// Existing summary renders without another engine call
	if err := c.HandleCallback(ctx, callbackFor(rec, encodeSummary(rec.ID))); err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}
	if deps.summarizer.calls != 0 {
		t.Errorf("summarizer calls = %d, want 0 when a summary exists", deps.summarizer.calls)
	}
	if !strings.Contains(deps.chat.lastEdit().text, "older summary") {
		t.Errorf("render = %q, want the stored summary", deps.chat.lastEdit().text)
	}
}

func TestToggleBackToFullRestoresPage(t *testing.T) {
	ctx := context.Background()
	deps := &controllerDeps{}
	c := newTestController(t, deps)

	rec := multiPageRecord()
	rec.CurrentPage = 1
	rec.Summary = "a summary"
	rec.View = store.ViewSummary
	rec = seedRecord(t, deps.store, rec)

	if err := c.HandleCallback(ctx, callbackFor(rec, encodeFullText(rec.ID))); err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}

	got, _ := deps.store.Get(ctx, rec.ID)
	if got.View != store.ViewFull {
		t.Errorf("View = %q, want full", got.View)
	}
	if got.CurrentPage != 1 {
		t.Errorf("CurrentPage = %d, want the last known page 1", got.CurrentPage)
	}
}

func TestCallbackOnExpiredRecord(t *testing.T) {
	ctx := context.Background()
	deps := &controllerDeps{}
	c := newTestController(t, deps)

	err := c.HandleCallback(ctx, &chat.CallbackQuery{
		ID:      "cb1",
		Message: chat.MessageRef{ChatID: 42, MessageID: 101},
		Data:    encodeNavigate("deadbeefdeadbeefdeadbeefdeadbeef", 1),
	})

	if !errors.Is(err, ErrRecordExpired) {
		t.Fatalf("error = %v, want ErrRecordExpired", err)
	}
	if deps.chat.lastEdit().text != msgRecordExpired {
		t.Errorf("edit = %q, want expiry notice", deps.chat.lastEdit().text)
	}
}

func TestCallbackRejectsUndecodablePayload(t *testing.T) {
	ctx := context.Background()
	deps := &controllerDeps{}
	c := newTestController(t, deps)

	err := c.HandleCallback(ctx, &chat.CallbackQuery{
		ID:      "cb1",
		Message: chat.MessageRef{ChatID: 42, MessageID: 101},
		Data:    `{"uuid":"abc"}`,
	})

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
}

func TestBudgetChangeRepaginatesOnNavigation(t *testing.T) {
	ctx := context.Background()
	deps := &controllerDeps{}
	c := newTestController(t, deps)

	// Written under a much larger budget than the active config's 4090
	rec := store.Record{
		ChatID:      42,
		MessageID:   101,
		FullText:    strings.TrimSpace(strings.Repeat("word ", 2300)),
		CurrentPage: 0,
		TotalPages:  1,
		PageBudget:  20000,
	}
	rec = seedRecord(t, deps.store, rec)

	if err := c.HandleCallback(ctx, callbackFor(rec, encodeNavigate(rec.ID, 0))); err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}

	got, _ := deps.store.Get(ctx, rec.ID)
	if got.PageBudget != 4090 {
		t.Errorf("PageBudget = %d, want rewritten to 4090", got.PageBudget)
	}
	if got.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want recomputed 3", got.TotalPages)
	}
	if n := len([]rune(deps.chat.lastEdit().text)); n > 4096 {
		t.Errorf("rendered page is %d chars, above the message ceiling", n)
	}
}

func TestExportSendsDocument(t *testing.T) {
	ctx := context.Background()
	deps := &controllerDeps{}
	c := newTestController(t, deps)
	rec := seedRecord(t, deps.store, multiPageRecord())

	if err := c.HandleCallback(ctx, callbackFor(rec, encodeExport(rec.ID))); err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}

	if len(deps.chat.documents) != 1 {
		t.Fatalf("documents sent = %d, want 1", len(deps.chat.documents))
	}
	doc := deps.chat.documents[0]
	if doc.chatID != rec.ChatID || doc.filename != "transcript.docx" {
		t.Errorf("document = %+v", doc)
	}
}
