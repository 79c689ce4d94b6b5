package ports

import "locline/internal/domain"

type ParseResult struct {
	Lines []domain.Line
	// HasHeader is true when line 0 carries the reserved header prefix and
	// must be excluded from work distribution.
	HasHeader bool
}

type Parser interface {
	Format() string
	Parse(data []byte) (ParseResult, error)
}
