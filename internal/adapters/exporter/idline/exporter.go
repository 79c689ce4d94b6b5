package idline

import (
	"bytes"

	"locline/internal/domain"
)

// Exporter writes lines back out in index order, one per line.
type Exporter struct{}

func New() *Exporter { return &Exporter{} }

func (e *Exporter) Format() string { return "idline" }

func (e *Exporter) Export(lines []domain.Line) ([]byte, error) {
	var buf bytes.Buffer
	for _, l := range lines {
		buf.WriteString(l.Text)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
