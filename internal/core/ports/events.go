package ports

import "go.trai.ch/utica/internal/core/domain"

// EventSink observes the project event stream. Implementations must be safe
// for concurrent publishers.
type EventSink interface {
	Publish(event domain.ProjectEvent)
}

// EventSinkFunc adapts a function to an EventSink.
type EventSinkFunc func(domain.ProjectEvent)

// Publish calls the wrapped function.
func (f EventSinkFunc) Publish(event domain.ProjectEvent) {
	f(event)
}
