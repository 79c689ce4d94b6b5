package runner

import (
	"fmt"
	"sync"

	"locline/internal/domain"
)

// LineStore holds every line of the input file, indexed by original
// position. Workers own disjoint index ranges, so a coarse mutex is all
// the coordination writes need. The record count never changes during a
// run.
type LineStore struct {
	mu    sync.Mutex
	lines []domain.Line
}

func NewLineStore(lines []domain.Line) *LineStore {
	copied := make([]domain.Line, len(lines))
	copy(copied, lines)
	return &LineStore{lines: copied}
}

func (s *LineStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Set replaces the text at index. An out-of-range index is a programming
// error (the partitioner guarantees it cannot happen), not a recoverable
// condition.
func (s *LineStore) Set(index int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.lines) {
		panic(fmt.Sprintf("line index %d out of range [0,%d)", index, len(s.lines)))
	}
	s.lines[index].Text = text
}

// Lines returns a snapshot of all records in index order.
func (s *LineStore) Lines() []domain.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Line, len(s.lines))
	copy(out, s.lines)
	return out
}
