package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeDocumentProcessed is emitted after a document has been
	// chunked, embedded, and written to the vector store.
	EventTypeDocumentProcessed = "chartdex.document.processed"
)

// DocumentProcessedEvent is a transport-neutral event payload for a
// processed document.
type DocumentProcessedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	Filename      string    `json:"filename"`
	ChunkCount    int       `json:"chunk_count"`
	PatientID     string    `json:"patient_id,omitempty"`
}

// NewDocumentProcessed builds a fully stamped event for one processed
// document. PatientID may be empty when the filename carries none.
func NewDocumentProcessed(filename string, chunkCount int, patientID string) *DocumentProcessedEvent {
	return &DocumentProcessedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeDocumentProcessed,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Filename:      filename,
		ChunkCount:    chunkCount,
		PatientID:     patientID,
	}
}
