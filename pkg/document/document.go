// Package document defines the types that flow through the ingestion
// pipeline: loaded source files and the chunks split out of them.
package document

// Document is a source file reduced to plain text by a loader.
type Document struct {
	// Source is the original filename (base name, not the full path).
	Source string

	// Text is the extracted plain text.
	Text string

	// Metadata carries loader-specific fields, e.g. "page" for PDF pages.
	Metadata map[string]string
}

// Chunk is one retrievable span of a document. The JSON shape doubles as
// the on-disk sidecar record (<filename>_chunks.json).
type Chunk struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// PatientID returns the chunk's patient identifier, if one was extracted
// from the source filename at chunking time.
func (c Chunk) PatientID() (string, bool) {
	id, ok := c.Metadata["patient_id"]
	return id, ok
}

// Source returns the original filename the chunk came from.
func (c Chunk) Source() string {
	return c.Metadata["source"]
}
