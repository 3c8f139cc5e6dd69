// Package qdrant provides a vector.Driver backed by a Qdrant server
// over gRPC.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/chartdexhq/chartdex/pkg/vector"
)

// DefaultCollectionName is the collection used when none is configured.
const DefaultCollectionName = "medical_documents"

// scrollPageSize bounds each scroll request when walking the
// collection for filtered reads and deletes.
const scrollPageSize = 512

// Config holds the settings for connecting to a Qdrant server.
type Config struct {
	Host           string
	Port           int
	APIKey         string
	UseTLS         bool
	CollectionName string
	Dimensions     uint64
}

// Driver implements vector.Driver on a Qdrant collection. Point IDs in
// Qdrant must be UUIDs, so each document ID is mapped to a
// deterministic UUIDv5; the original ID is kept in the payload.
type Driver struct {
	client     *qdrant.Client
	collection string
	logger     *slog.Logger
}

var _ vector.Driver = (*Driver)(nil)

// NewDriver connects to Qdrant and creates the collection with cosine
// distance if it does not exist yet.
func NewDriver(ctx context.Context, cfg Config, logger *slog.Logger) (*Driver, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("qdrant host is required")
	}
	if cfg.Dimensions == 0 {
		return nil, fmt.Errorf("dimensions must be greater than zero")
	}
	if cfg.CollectionName == "" {
		cfg.CollectionName = DefaultCollectionName
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating qdrant client: %v", vector.ErrConnection, err)
	}

	exists, err := client.CollectionExists(ctx, cfg.CollectionName)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: checking collection %q: %v", vector.ErrConnection, cfg.CollectionName, err)
	}

	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: cfg.CollectionName,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     cfg.Dimensions,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: creating collection %q: %v", vector.ErrConnection, cfg.CollectionName, err)
		}
		logger.Info("created qdrant collection", "collection", cfg.CollectionName, "dimensions", cfg.Dimensions)
	}

	return &Driver{
		client:     client,
		collection: cfg.CollectionName,
		logger:     logger,
	}, nil
}

// Add upserts documents, refusing IDs that already exist in the
// collection.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]*qdrant.PointId, len(docs))
	for i, doc := range docs {
		ids[i] = qdrant.NewID(pointID(doc.ID))
	}

	existing, err := d.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: d.collection,
		Ids:            ids,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return fmt.Errorf("checking existing points: %w", err)
	}
	if len(existing) > 0 {
		return fmt.Errorf("%w: %s", vector.ErrDuplicateID, payloadString(existing[0].GetPayload(), "doc_id"))
	}

	points := make([]*qdrant.PointStruct, len(docs))
	for i, doc := range docs {
		metadata := make(map[string]any, len(doc.Metadata))
		for k, v := range doc.Metadata {
			metadata[k] = v
		}
		points[i] = &qdrant.PointStruct{
			Id:      ids[i],
			Vectors: qdrant.NewVectors(doc.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				"doc_id":   doc.ID,
				"text":     doc.Text,
				"metadata": metadata,
			}),
		}
	}

	_, err = d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting %d points: %w", len(points), err)
	}

	return nil
}

// Query returns the closest documents. Qdrant scores cosine similarity
// descending; results are mapped to distances so smaller means closer.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}

	points, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying collection %q: %w", d.collection, err)
	}

	results := make([]vector.QueryResult, 0, len(points))
	for _, point := range points {
		payload := point.GetPayload()
		results = append(results, vector.QueryResult{
			Document: vector.Document{
				ID:        payloadString(payload, "doc_id"),
				Embedding: pointEmbedding(point.GetVectors()),
				Text:      payloadString(payload, "text"),
				Metadata:  payloadMetadata(payload),
			},
			Distance: 1 - point.GetScore(),
		})
	}

	return results, nil
}

// Get returns all documents matching the filter by scrolling the
// collection. Substring matching runs client side since Qdrant's text
// match needs a field index and tokenizes rather than matching bytes.
func (d *Driver) Get(ctx context.Context, filter vector.Filter) ([]vector.Document, error) {
	docs := make([]vector.Document, 0)
	err := d.scroll(ctx, filter, func(point *qdrant.RetrievedPoint) {
		payload := point.GetPayload()
		docs = append(docs, vector.Document{
			ID:        payloadString(payload, "doc_id"),
			Embedding: pointEmbedding(point.GetVectors()),
			Text:      payloadString(payload, "text"),
			Metadata:  payloadMetadata(payload),
		})
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Delete removes all documents matching the filter.
func (d *Driver) Delete(ctx context.Context, filter vector.Filter) error {
	var ids []*qdrant.PointId
	err := d.scroll(ctx, filter, func(point *qdrant.RetrievedPoint) {
		ids = append(ids, point.GetId())
	})
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	_, err = d.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: d.collection,
		Points:         qdrant.NewPointsSelector(ids...),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("deleting %d points: %w", len(ids), err)
	}

	return nil
}

// Count returns the exact number of points in the collection.
func (d *Driver) Count(ctx context.Context) (int, error) {
	count, err := d.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: d.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("counting collection %q: %w", d.collection, err)
	}
	return int(count), nil
}

// Close releases the underlying gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

// scroll walks every point matching the filter, invoking visit per
// point. Pagination uses the raw points client so the next-page offset
// is visible.
func (d *Driver) scroll(ctx context.Context, filter vector.Filter, visit func(*qdrant.RetrievedPoint)) error {
	qdrantFilter := metadataFilter(filter)

	var offset *qdrant.PointId
	for {
		resp, err := d.client.GetPointsClient().Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: d.collection,
			Filter:         qdrantFilter,
			Limit:          qdrant.PtrOf(uint32(scrollPageSize)),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(true),
		})
		if err != nil {
			return fmt.Errorf("scrolling collection %q: %w", d.collection, err)
		}

		for _, point := range resp.GetResult() {
			if filter.TextContains != "" &&
				!strings.Contains(payloadString(point.GetPayload(), "text"), filter.TextContains) {
				continue
			}
			visit(point)
		}

		offset = resp.GetNextPageOffset()
		if offset == nil {
			return nil
		}
	}
}

// metadataFilter converts the metadata part of a Filter into Qdrant
// must-conditions on the nested metadata payload.
func metadataFilter(filter vector.Filter) *qdrant.Filter {
	if len(filter.Metadata) == 0 {
		return nil
	}

	keys := make([]string, 0, len(filter.Metadata))
	for k := range filter.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	must := make([]*qdrant.Condition, 0, len(keys))
	for _, k := range keys {
		must = append(must, qdrant.NewMatch("metadata."+k, filter.Metadata[k]))
	}

	return &qdrant.Filter{Must: must}
}

// pointID derives the deterministic UUID Qdrant requires from an
// arbitrary document ID, so the same document always maps to the same
// point.
func pointID(docID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(docID)).String()
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	if payload == nil {
		return ""
	}
	return payload[key].GetStringValue()
}

func payloadMetadata(payload map[string]*qdrant.Value) map[string]string {
	if payload == nil {
		return nil
	}
	fields := payload["metadata"].GetStructValue().GetFields()
	if len(fields) == 0 {
		return nil
	}

	metadata := make(map[string]string, len(fields))
	for k, v := range fields {
		metadata[k] = v.GetStringValue()
	}
	return metadata
}

func pointEmbedding(vectors *qdrant.VectorsOutput) []float32 {
	return vectors.GetVector().GetData()
}
