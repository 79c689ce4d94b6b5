package ports

import "locline/internal/domain"

// EventEmitter is a fire-and-forget progress sink. Emit must never block a
// worker; a slow or absent consumer loses events.
type EventEmitter interface {
	Emit(ev domain.ProgressEvent)
}
