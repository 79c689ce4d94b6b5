package ports

import "locline/internal/domain"

type Exporter interface {
	Format() string
	Export(lines []domain.Line) ([]byte, error)
}
