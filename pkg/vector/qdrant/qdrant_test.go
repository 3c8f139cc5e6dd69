package qdrant

import (
	"context"
	"testing"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/qdrant/go-client/qdrant"

	"github.com/chartdexhq/chartdex/pkg/logger"
	"github.com/chartdexhq/chartdex/pkg/vector"
)

func TestQdrant(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Qdrant Driver Suite")
}

var _ = Describe("NewDriver", func() {
	It("requires a host", func() {
		_, err := NewDriver(context.Background(), Config{Dimensions: 768}, logger.Nop())
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("host is required"))
	})

	It("requires dimensions", func() {
		_, err := NewDriver(context.Background(), Config{Host: "localhost"}, logger.Nop())
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("dimensions"))
	})
})

var _ = Describe("pointID", func() {
	It("derives a stable UUID from a document ID", func() {
		first := pointID("doc-1")
		second := pointID("doc-1")
		Expect(first).To(Equal(second))

		_, err := uuid.Parse(first)
		Expect(err).NotTo(HaveOccurred())
	})

	It("maps distinct document IDs to distinct points", func() {
		Expect(pointID("doc-1")).NotTo(Equal(pointID("doc-2")))
	})
})

var _ = Describe("metadataFilter", func() {
	It("returns nil for a filter without metadata", func() {
		Expect(metadataFilter(vector.Filter{})).To(BeNil())
		Expect(metadataFilter(vector.Filter{TextContains: "x"})).To(BeNil())
	})

	It("builds one must-condition per metadata key, sorted", func() {
		filter := metadataFilter(vector.Filter{Metadata: map[string]string{
			"source":     "visit.txt",
			"patient_id": "123456",
		}})

		Expect(filter).NotTo(BeNil())
		Expect(filter.Must).To(HaveLen(2))
		Expect(filter.Must[0].GetField().GetKey()).To(Equal("metadata.patient_id"))
		Expect(filter.Must[0].GetField().GetMatch().GetKeyword()).To(Equal("123456"))
		Expect(filter.Must[1].GetField().GetKey()).To(Equal("metadata.source"))
		Expect(filter.Must[1].GetField().GetMatch().GetKeyword()).To(Equal("visit.txt"))
	})
})

var _ = Describe("payload mapping", func() {
	It("reads strings and nested metadata from a point payload", func() {
		payload := qdrant.NewValueMap(map[string]any{
			"doc_id": "doc-1",
			"text":   "patient presents with chest pain",
			"metadata": map[string]any{
				"patient_id": "123456",
				"source":     "patient_123456_visit.txt",
			},
		})

		Expect(payloadString(payload, "doc_id")).To(Equal("doc-1"))
		Expect(payloadString(payload, "missing")).To(BeEmpty())
		Expect(payloadMetadata(payload)).To(Equal(map[string]string{
			"patient_id": "123456",
			"source":     "patient_123456_visit.txt",
		}))
	})

	It("tolerates a payload without metadata", func() {
		payload := qdrant.NewValueMap(map[string]any{"doc_id": "doc-1"})
		Expect(payloadMetadata(payload)).To(BeNil())
		Expect(payloadMetadata(nil)).To(BeNil())
	})
})
