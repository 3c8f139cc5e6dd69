// Package vector provides interfaces and implementations for vector storage and embedding.
package vector

import "context"

// Document represents a stored chunk with its embedding, text, and metadata.
type Document struct {
	// ID is a unique identifier for the document (a UUID assigned at add time).
	ID string

	// Embedding is the vector representation of the document content.
	Embedding []float32

	// Text is the chunk text the embedding was computed from.
	Text string

	// Metadata carries the chunk's key/value metadata. Every entry has a
	// "source" key with the original filename; entries chunked from a file
	// with a recognizable patient identifier also carry "patient_id".
	Metadata map[string]string
}

// QueryResult represents a search result with its distance to the query.
type QueryResult struct {
	Document

	// Distance between the query embedding and this document's embedding
	// (lower = more similar).
	Distance float32
}

// Filter selects stored documents for Get and Delete.
//
// A zero Filter matches everything. Metadata pairs are AND-ed together;
// TextContains matches documents whose text contains the given substring.
// When both are set, a document must satisfy both.
type Filter struct {
	Metadata     map[string]string
	TextContains string
}

// Empty reports whether the filter matches all documents.
func (f Filter) Empty() bool {
	return len(f.Metadata) == 0 && f.TextContains == ""
}

// Driver handles storage and retrieval of vector embeddings.
type Driver interface {
	// Add stores documents with their embeddings. Adding a document whose
	// ID already exists fails with ErrDuplicateID; implementers must never
	// silently overwrite.
	Add(ctx context.Context, docs []Document) error

	// Query finds the topK nearest documents to the given embedding,
	// ordered by ascending distance.
	Query(ctx context.Context, embedding []float32, topK int) ([]QueryResult, error)

	// Get retrieves documents matching the filter. A miss is an empty
	// slice, not an error.
	Get(ctx context.Context, filter Filter) ([]Document, error)

	// Delete removes documents matching the filter.
	Delete(ctx context.Context, filter Filter) error

	// Count reports the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Close releases any resources held by the driver.
	Close() error
}
