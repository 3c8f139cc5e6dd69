package vector

import "errors"

var (
	// ErrNotFound is returned when a document is not found in the vector store.
	ErrNotFound = errors.New("document not found")

	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = errors.New("embedding failed")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")

	// ErrDuplicateID is returned when adding a document whose ID is already
	// stored. Drivers surface the collision instead of overwriting.
	ErrDuplicateID = errors.New("duplicate document id")

	// ErrCorrupt is returned when the backing store is damaged or otherwise
	// unable to serve reads and writes (malformed database file, read-only
	// filesystem, missing schema). Callers use it to decide whether a
	// snapshot restore is warranted.
	ErrCorrupt = errors.New("vector store corrupt")
)
