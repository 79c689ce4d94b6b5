package domain

import "strings"

const (
	// IDDelimiter separates the line identifier from its payload.
	IDDelimiter = ":::"
	// HeaderPrefix marks an optional first line that is kept out of
	// translation and reproduced verbatim in the output.
	HeaderPrefix = "0:::"
)

// Line is one record of the input file. Index is the 0-based position in
// the original file; Text is overwritten in place as translations arrive.
type Line struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// SplitID splits "ID:::payload" at the first delimiter. The identifier is
// trimmed; the payload is returned as-is. ok is false for bare lines.
func SplitID(text string) (id, payload string, ok bool) {
	i := strings.Index(text, IDDelimiter)
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(text[:i]), text[i+len(IDDelimiter):], true
}

type ModelInfo struct {
	ID string `json:"id"`
}
