package delivery

import (
	"fmt"

	"github.com/nguyentantai21042004/transcript-flow/internal/chat"
	"github.com/nguyentantai21042004/transcript-flow/internal/store"
)

// User-facing texts. The continuation marker matches the headroom reserved
// by the page budget.
const (
	msgPlaceholder         = "[...]"
	continuationMark       = " [...]"
	msgExtractionFailed    = "Sorry, I couldn't find any usable audio in that message."
	msgTranscriptionFailed = "Sorry, something went wrong while transcribing. Please try sending the message again."
	msgNothingToTranscribe = "There was nothing to transcribe in that message."
	msgSummarizing         = "Generating the summary...\n\nThis can take a moment."
	msgTooShortToSummarize = "This message is too short to be summarized meaningfully."
	msgSummaryTimeout      = "The summary is taking too long. Please try again later."
	msgSummaryUnreachable  = "The summarization service is unreachable right now. Please try again later."
	msgSummaryFailed       = "Something went wrong while generating the summary. Please try again later."
	msgRecordExpired       = "This transcript is no longer available."
	msgInvalidRequest      = "I couldn't process that request."
	msgDocumentCaption     = "Full transcript"
)

// pageText renders one page, flagging non-final pages with a continuation
// marker.
func pageText(pages []string, page int) string {
	text := pages[page]
	if page < len(pages)-1 {
		text += continuationMark
	}
	return text
}

func summaryText(summary string) string {
	return "Summary\n\n" + summary + "\n\nGenerated automatically from the transcript."
}

// fullKeyboard builds the controls for the full-text view: navigation when
// there is more than one page, then summary and export actions. Navigation
// buttons encode the target page, not the page being left.
func fullKeyboard(rec store.Record) *chat.Keyboard {
	var rows [][]chat.Button

	if rec.TotalPages > 1 {
		var nav []chat.Button
		if rec.CurrentPage > 0 {
			nav = append(nav, chat.Button{Text: "< Prev", Data: encodeNavigate(rec.ID, rec.CurrentPage-1)})
		}
		nav = append(nav, chat.Button{Text: fmt.Sprintf("%d/%d", rec.CurrentPage+1, rec.TotalPages), Data: encodeNavigate(rec.ID, rec.CurrentPage)})
		if rec.CurrentPage < rec.TotalPages-1 {
			nav = append(nav, chat.Button{Text: "Next >", Data: encodeNavigate(rec.ID, rec.CurrentPage+1)})
		}
		rows = append(rows, nav)
	}

	summaryLabel := "Summarize"
	if rec.Summary != "" {
		summaryLabel = "Summary"
	}
	rows = append(rows, []chat.Button{
		{Text: summaryLabel, Data: encodeSummary(rec.ID)},
		{Text: "Export .docx", Data: encodeExport(rec.ID)},
	})

	return &chat.Keyboard{Rows: rows}
}

// summaryKeyboard builds the controls for the summary view.
func summaryKeyboard(rec store.Record) *chat.Keyboard {
	return &chat.Keyboard{Rows: [][]chat.Button{{
		{Text: "Full text", Data: encodeFullText(rec.ID)},
		{Text: "Export .docx", Data: encodeExport(rec.ID)},
	}}}
}
