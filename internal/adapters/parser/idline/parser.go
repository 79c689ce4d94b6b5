package idline

import (
	"bytes"
	"strings"

	"locline/internal/domain"
	"locline/internal/ports"
)

// Parser reads newline-delimited localization text where each line is
// either "ID:::payload" or a bare line without an identifier.
type Parser struct{}

func New() *Parser { return &Parser{} }

func (p *Parser) Format() string { return "idline" }

func (p *Parser) Parse(data []byte) (ports.ParseResult, error) {
	data = stripBOM(data)
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if strings.TrimSpace(text) == "" {
		return ports.ParseResult{}, nil
	}
	raw := strings.Split(text, "\n")
	lines := make([]domain.Line, len(raw))
	for i, l := range raw {
		lines[i] = domain.Line{Index: i, Text: strings.TrimSpace(l)}
	}
	return ports.ParseResult{
		Lines:     lines,
		HasHeader: strings.HasPrefix(lines[0].Text, domain.HeaderPrefix),
	}, nil
}

func stripBOM(b []byte) []byte {
	bom := []byte{0xEF, 0xBB, 0xBF}
	if len(b) >= 3 && bytes.Equal(b[:3], bom) {
		return b[3:]
	}
	return b
}
