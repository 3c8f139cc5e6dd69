// Package retriever answers semantic and patient-scoped lookups against
// the vector store.
//
// Retrieval methods do not return errors: absence of data is a valid
// displayable outcome. Failures are logged (warn when a lookup finds
// nothing, error when the store or embedder fails) and yield empty
// results, so the two cases stay distinguishable in logs without either
// surfacing a raw store error to callers.
package retriever

import (
	"context"
	"log/slog"

	"github.com/chartdexhq/chartdex/pkg/embeddings"
	"github.com/chartdexhq/chartdex/pkg/store"
	"github.com/chartdexhq/chartdex/pkg/vector"
)

// DefaultTopK is the semantic result count when none is configured.
const DefaultTopK = 5

// Store is the slice of the vector store manager the retriever reads
// from.
type Store interface {
	QuerySimilar(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error)
	GetExact(ctx context.Context, patientID string) ([]vector.Document, error)
	GetByContent(ctx context.Context, text string) ([]vector.Document, error)
}

var _ Store = (*store.Manager)(nil)

// Result is one retrieved chunk. Score is the query distance for
// semantic results and zero for patient lookups, which are unranked.
type Result struct {
	Text     string
	Metadata map[string]string
	Score    float32
}

// Retriever runs retrieval against a store through an embedder.
type Retriever struct {
	store    Store
	embedder embeddings.Embedder
	topK     int
	logger   *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithTopK sets the default semantic result count. Patient lookups are
// capped at twice this value.
func WithTopK(k int) Option {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithLogger sets the retriever's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Retriever over the given store and embedder.
func New(store Store, embedder embeddings.Embedder, opts ...Option) *Retriever {
	r := &Retriever{
		store:    store,
		embedder: embedder,
		topK:     DefaultTopK,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Query returns the topK chunks most similar to the query text,
// nearest first. topK <= 0 uses the retriever's default.
func (r *Retriever) Query(ctx context.Context, query string, topK int) []Result {
	if topK <= 0 {
		topK = r.topK
	}

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.logger.Error("embedding query failed", "error", err)
		return []Result{}
	}

	matches, err := r.store.QuerySimilar(ctx, embedding, topK)
	if err != nil {
		r.logger.Error("semantic query failed", "error", err)
		return []Result{}
	}
	if len(matches) == 0 {
		r.logger.Warn("no results for query")
		return []Result{}
	}

	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{Text: m.Text, Metadata: m.Metadata, Score: m.Distance}
	}
	return results
}

// PatientDocuments returns entries for one patient: exact metadata
// match first, then a content-substring fallback for entries indexed
// before patient tagging was in place. It never issues a semantic
// query; returning nothing beats returning another patient's records.
func (r *Retriever) PatientDocuments(ctx context.Context, patientID string) []Result {
	limit := r.topK * 2

	docs, err := r.store.GetExact(ctx, patientID)
	if err != nil {
		r.logger.Error("patient metadata lookup failed", "patient_id", patientID, "error", err)
	} else if len(docs) > 0 {
		return clip(toResults(docs), limit)
	}

	docs, err = r.store.GetByContent(ctx, patientID)
	if err != nil {
		r.logger.Error("patient content lookup failed", "patient_id", patientID, "error", err)
		return []Result{}
	}
	if len(docs) > 0 {
		return clip(toResults(docs), limit)
	}

	r.logger.Warn("no documents found for patient", "patient_id", patientID)
	return []Result{}
}

func toResults(docs []vector.Document) []Result {
	results := make([]Result, len(docs))
	for i, d := range docs {
		results[i] = Result{Text: d.Text, Metadata: d.Metadata}
	}
	return results
}

func clip(results []Result, limit int) []Result {
	if len(results) > limit {
		return results[:limit]
	}
	return results
}
