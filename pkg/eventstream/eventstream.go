// Package eventstream defines the index events docqa emits when a document
// is built or deleted, and the Publisher contract backends implement.
package eventstream

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNilEvent is returned when a publisher is handed a nil event.
	ErrNilEvent = errors.New("nil index event")

	// ErrUnknownEventType is returned for event types docqa does not emit.
	ErrUnknownEventType = errors.New("unknown index event type")
)

// Publisher delivers index events to a backend.
type Publisher interface {
	PublishIndexEvent(ctx context.Context, event *IndexEvent) error
	Close() error
}

// Validate reports whether event is fit to publish.
func Validate(event *IndexEvent) error {
	if event == nil {
		return ErrNilEvent
	}
	switch event.EventType {
	case EventTypeDocumentIndexed, EventTypeDocumentDeleted:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEventType, event.EventType)
	}
}
