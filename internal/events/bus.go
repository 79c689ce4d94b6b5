package events

import (
	"sync"

	"locline/internal/domain"
)

// Bus fans progress events out to subscribers. Emit never blocks a worker:
// events for a slow or absent subscriber are dropped.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan domain.ProgressEvent
	next int
}

func NewBus() *Bus {
	return &Bus{subs: map[int]chan domain.ProgressEvent{}}
}

// Emit implements ports.EventEmitter.
func (b *Bus) Emit(ev domain.ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe registers a consumer with the given buffer size and returns the
// event channel plus a cancel func that unregisters and closes it.
func (b *Bus) Subscribe(buffer int) (<-chan domain.ProgressEvent, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan domain.ProgressEvent, buffer)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()
	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}
