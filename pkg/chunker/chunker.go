// Package chunker splits plain-text documents into overlapping chunks
// sized for embedding.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/chartdexhq/chartdex/pkg/document"
)

// DefaultChunkSize is the default maximum chunk size in bytes.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of bytes carried over
// between consecutive chunks.
const DefaultChunkOverlap = 200

// defaultSeparators are tried coarsest first: paragraphs, lines, words,
// then a hard byte window when nothing else splits the text.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter recursively splits text into chunks of at most ChunkSize
// bytes, breaking on the coarsest separator present before falling
// back to finer ones.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithChunkSize sets the maximum chunk size in bytes.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithChunkOverlap sets the overlap between consecutive chunks in bytes.
func WithChunkOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.chunkOverlap = overlap
		}
	}
}

// WithSeparators replaces the separator hierarchy. Separators are tried
// in order; an empty string means a hard split by byte window.
func WithSeparators(separators []string) Option {
	return func(s *Splitter) {
		if len(separators) > 0 {
			s.separators = separators
		}
	}
}

// New creates a Splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		separators:   defaultSeparators,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Ensure overlap doesn't exceed chunk size
	if s.chunkOverlap >= s.chunkSize {
		s.chunkOverlap = s.chunkSize / 4
	}

	return s
}

// Split splits text into chunks of at most the configured size. Empty
// or whitespace-only text produces no chunks.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.split(text, s.separators)
}

// ChunkDocument splits a loaded document and stamps each chunk with the
// source filename and, when the filename carries one, a patient ID.
// Loader metadata such as PDF page numbers is copied onto every chunk.
func (s *Splitter) ChunkDocument(doc document.Document) []document.Chunk {
	texts := s.Split(doc.Text)
	if len(texts) == 0 {
		return nil
	}

	patientID, hasPatient := PatientID(doc.Source)

	chunks := make([]document.Chunk, 0, len(texts))
	for _, text := range texts {
		metadata := make(map[string]string, len(doc.Metadata)+2)
		for k, v := range doc.Metadata {
			metadata[k] = v
		}
		metadata["source"] = doc.Source
		if hasPatient {
			metadata["patient_id"] = patientID
		}
		chunks = append(chunks, document.Chunk{Text: text, Metadata: metadata})
	}

	return chunks
}

func (s *Splitter) split(text string, separators []string) []string {
	if len(text) <= s.chunkSize {
		return []string{text}
	}

	sep, finer := pickSeparator(text, separators)
	if sep == "" {
		return s.window(text)
	}

	return s.merge(strings.Split(text, sep), sep, finer)
}

// pickSeparator returns the coarsest separator present in text along
// with the finer separators after it. An empty separator, or none
// matching, signals a hard window split.
func pickSeparator(text string, separators []string) (string, []string) {
	for i, sep := range separators {
		if sep == "" {
			return "", nil
		}
		if strings.Contains(text, sep) {
			return sep, separators[i+1:]
		}
	}
	return "", nil
}

// merge greedily packs pieces back into chunks of at most chunkSize
// bytes, recursing with finer separators when a single piece is itself
// too large. The tail of each finished chunk seeds the next one so
// consecutive chunks overlap.
func (s *Splitter) merge(pieces []string, sep string, finer []string) []string {
	var chunks []string
	var cur string   // chunk under construction
	var carry string // overlap tail of the previously finished chunk

	emit := func() {
		if cur == "" {
			return
		}
		chunks = append(chunks, cur)
		carry = tail(cur, s.chunkOverlap)
		cur = ""
	}

	for _, piece := range pieces {
		if piece == "" {
			continue
		}

		if len(piece) > s.chunkSize {
			emit()
			sub := s.split(piece, finer)
			chunks = append(chunks, sub...)
			carry = ""
			if len(sub) > 0 {
				carry = tail(sub[len(sub)-1], s.chunkOverlap)
			}
			continue
		}

		if cur != "" && len(cur)+len(sep)+len(piece) > s.chunkSize {
			emit()
		}

		switch {
		case cur != "":
			cur += sep + piece
		case carry != "":
			// Trim the seed so seed + separator + piece still fits.
			seed := tail(carry, s.chunkSize-len(piece)-len(sep))
			if seed != "" {
				cur = seed + sep + piece
			} else {
				cur = piece
			}
		default:
			cur = piece
		}
	}
	emit()

	return chunks
}

// window hard-splits text into fixed-size windows stepping by
// chunkSize-chunkOverlap, used when no separator is left to split on.
func (s *Splitter) window(text string) []string {
	step := s.chunkSize - s.chunkOverlap
	if step <= 0 {
		step = s.chunkSize
	}

	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + s.chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
	}

	return chunks
}

// tail returns the last n bytes of text, shrunk to the nearest rune
// boundary so multi-byte characters are never split.
func tail(text string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(text) <= n {
		return text
	}
	i := len(text) - n
	for i < len(text) && !utf8.RuneStart(text[i]) {
		i++
	}
	return text[i:]
}
