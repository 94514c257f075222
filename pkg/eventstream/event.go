package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeDocumentIndexed is emitted after a document is built and persisted.
	EventTypeDocumentIndexed = "docqa.document.indexed"

	// EventTypeDocumentDeleted is emitted after a document is deleted.
	EventTypeDocumentDeleted = "docqa.document.deleted"
)

// IndexEvent is a transport-neutral event payload describing a change to a
// document's index.
type IndexEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	DocumentID    int64     `json:"document_id"`
	Mode          string    `json:"mode,omitempty"`
	Chunks        int       `json:"chunks"`
	Dimensions    int       `json:"dimensions,omitempty"`
}

// NewIndexEvent returns an event of the given type with a fresh id and timestamp.
func NewIndexEvent(eventType string, documentID int64) *IndexEvent {
	return &IndexEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     eventType,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		DocumentID:    documentID,
	}
}
