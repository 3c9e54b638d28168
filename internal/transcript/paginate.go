// Package transcript holds the pure text-shaping logic for delivered
// transcripts: splitting arbitrarily long text into bounded pages.
package transcript

import "strings"

// Paginate splits text into ordered pages of at most maxLen characters each,
// preferring to break at the last space inside the window so no word is cut
// when a word boundary exists. When a window holds no space at all the split
// is hard, at exactly maxLen. Page-boundary whitespace is trimmed.
//
// Deterministic: the same (text, maxLen) always yields the same boundaries,
// which keeps stored page indices addressable across renders. Empty or
// whitespace-only text yields no pages.
func Paginate(text string, maxLen int) []string {
	if maxLen < 1 {
		return nil
	}

	remaining := strings.TrimSpace(text)
	if remaining == "" {
		return nil
	}

	var pages []string
	runes := []rune(remaining)

	for len(runes) > maxLen {
		cut := lastSpaceBefore(runes, maxLen)
		if cut == -1 {
			cut = maxLen
		}

		page := strings.TrimSpace(string(runes[:cut]))
		if page != "" {
			pages = append(pages, page)
		}
		runes = []rune(strings.TrimSpace(string(runes[cut:])))
	}

	if len(runes) > 0 {
		pages = append(pages, string(runes))
	}

	return pages
}

// lastSpaceBefore returns the index of the rightmost space in runes[:limit],
// or -1 when the window holds none.
func lastSpaceBefore(runes []rune, limit int) int {
	for i := limit - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}
