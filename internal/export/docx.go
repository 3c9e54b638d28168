// Package export renders transcripts into shareable documents.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

const (
	fontName = "Times New Roman"
	fontSize = 13
)

// TranscriptDocx writes the transcript as a styled docx and returns its
// bytes, ready to be attached to a chat message. Paragraph breaks follow the
// blank lines of the text; a run-on transcript becomes one paragraph per
// sentence group of roughly docParagraphWords words.
func TranscriptDocx(title, text string) ([]byte, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	addHeading(doc.AddParagraph(""), title)
	doc.AddParagraph("")

	for _, para := range splitParagraphs(text) {
		p := doc.AddParagraph("")
		p.AddText(para).Font(fontName).Size(fontSize).Color("000000")
	}

	tmpDir, err := os.MkdirTemp("", "export-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outPath := filepath.Join(tmpDir, "transcript.docx")
	if err := doc.SaveTo(outPath); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}

const docParagraphWords = 120

func addHeading(p *docx.Paragraph, text string) {
	p.AddText(text).Font(fontName).Size(16).Color("000000").Bold(true)
}

// splitParagraphs breaks the transcript into readable paragraphs. Existing
// blank lines win; otherwise words are grouped into fixed-size chunks.
func splitParagraphs(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if strings.Contains(text, "\n\n") {
		var out []string
		for _, block := range strings.Split(text, "\n\n") {
			if b := strings.TrimSpace(block); b != "" {
				out = append(out, b)
			}
		}
		return out
	}

	words := strings.Fields(text)
	var out []string
	for len(words) > docParagraphWords {
		out = append(out, strings.Join(words[:docParagraphWords], " "))
		words = words[docParagraphWords:]
	}
	if len(words) > 0 {
		out = append(out, strings.Join(words, " "))
	}
	return out
}
