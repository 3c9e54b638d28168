package delivery

import (
	"fmt"
	"strconv"
	"strings"
)

// Callback payload wire format, version 1:
//
//	1|n|<record id>|<target page>   navigate to page
//	1|s|<record id>                 show summary (generating it if absent)
//	1|f|<record id>                 back to full text, last known page
//	1|d|<record id>                 export transcript as a document
//
// The navigation token always carries the page being navigated TO. Record
// ids are 32-char uuid hex, keeping every token well under the 64-byte
// callback-data ceiling. Unknown versions or actions are rejected; there are
// no legacy fallback formats.

type Action int

const (
	ActionNavigate Action = iota
	ActionSummary
	ActionFullText
	ActionExport
)

type Payload struct {
	Action   Action
	RecordID string
	Page     int
}

// DecodeError reports a callback payload this version cannot interpret.
type DecodeError struct {
	Data   string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("undecodable callback payload %q: %s", e.Data, e.Reason)
}

const payloadVersion = "1"

func encodeNavigate(recordID string, targetPage int) string {
	return fmt.Sprintf("%s|n|%s|%d", payloadVersion, recordID, targetPage)
}

func encodeSummary(recordID string) string {
	return fmt.Sprintf("%s|s|%s", payloadVersion, recordID)
}

func encodeFullText(recordID string) string {
	return fmt.Sprintf("%s|f|%s", payloadVersion, recordID)
}

func encodeExport(recordID string) string {
	return fmt.Sprintf("%s|d|%s", payloadVersion, recordID)
}

func decodePayload(data string) (Payload, error) {
	parts := strings.Split(data, "|")
	if len(parts) < 3 {
		return Payload{}, &DecodeError{Data: data, Reason: "too few fields"}
	}
	if parts[0] != payloadVersion {
		return Payload{}, &DecodeError{Data: data, Reason: "unknown version"}
	}
	if parts[2] == "" {
		return Payload{}, &DecodeError{Data: data, Reason: "empty record id"}
	}

	p := Payload{RecordID: parts[2]}

	switch parts[1] {
	case "n":
		if len(parts) != 4 {
			return Payload{}, &DecodeError{Data: data, Reason: "navigate needs a page"}
		}
		page, err := strconv.Atoi(parts[3])
		if err != nil || page < 0 {
			return Payload{}, &DecodeError{Data: data, Reason: "bad page number"}
		}
		p.Action = ActionNavigate
		p.Page = page
	case "s":
		p.Action = ActionSummary
	case "f":
		p.Action = ActionFullText
	case "d":
		p.Action = ActionExport
	default:
		return Payload{}, &DecodeError{Data: data, Reason: "unknown action"}
	}

	if p.Action != ActionNavigate && len(parts) != 3 {
		return Payload{}, &DecodeError{Data: data, Reason: "trailing fields"}
	}

	return p, nil
}
