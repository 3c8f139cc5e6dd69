package chroma_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	chartdexlogger "github.com/chartdexhq/chartdex/pkg/logger"
	"github.com/chartdexhq/chartdex/pkg/vector"
	"github.com/chartdexhq/chartdex/pkg/vector/chroma"
)

func TestChroma(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Chroma Suite")
}

// fakeChroma stands in for a Chroma server: it answers the collection
// handshake and records the last add/query/get/delete payloads.
type fakeChroma struct {
	server *httptest.Server

	lastAdd    map[string]any
	lastQuery  map[string]any
	lastGet    map[string]any
	lastDelete map[string]any

	queryResponse map[string]any
	getResponse   map[string]any
	addStatus     int
	addBody       string
}

func newFakeChroma() *fakeChroma {
	f := &fakeChroma{addStatus: http.StatusCreated}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "GET" && strings.HasSuffix(r.URL.Path, "/collections/medical_documents"):
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{
				"id":   "col-1",
				"name": "medical_documents",
			})
		case strings.HasSuffix(r.URL.Path, "/add"):
			json.NewDecoder(r.Body).Decode(&f.lastAdd)
			if f.addStatus != http.StatusCreated {
				http.Error(w, f.addBody, f.addStatus)
				return
			}
			w.WriteHeader(http.StatusCreated)
		case strings.HasSuffix(r.URL.Path, "/query"):
			json.NewDecoder(r.Body).Decode(&f.lastQuery)
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(f.queryResponse)
		case strings.HasSuffix(r.URL.Path, "/get"):
			json.NewDecoder(r.Body).Decode(&f.lastGet)
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(f.getResponse)
		case strings.HasSuffix(r.URL.Path, "/delete"):
			json.NewDecoder(r.Body).Decode(&f.lastDelete)
			w.WriteHeader(http.StatusOK)
		case r.Method == "GET" && strings.HasSuffix(r.URL.Path, "/count"):
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte("42"))
		default:
			http.NotFound(w, r)
		}
	}))
	return f
}

var _ = Describe("Driver", func() {
	var logger *slog.Logger

	BeforeEach(func() {
		logger = chartdexlogger.Nop()
	})

	Describe("NewDriver", func() {
		It("should return an error when URL is empty", func() {
			_, err := chroma.NewDriver(chroma.Config{URL: ""}, logger)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("chroma URL is required"))
		})

		It("should succeed after retrying when Chroma becomes available", func() {
			var attempts atomic.Int32

			// The GET request for the collection and the POST to create it
			// are separate requests. Each retry attempt may hit both endpoints.
			// We track total requests and fail the first few to simulate Chroma
			// still starting up.
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempt := attempts.Add(1)

				// Fail the first 4 requests (2 retry cycles: GET+POST each),
				// succeed on the 5th (the GET of the 3rd retry cycle).
				if attempt <= 4 {
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{
					"id":   "test-collection-id",
					"name": "medical_documents",
				})
			}))
			defer server.Close()

			driver, err := chroma.NewDriver(chroma.Config{
				URL:           server.URL,
				MaxRetries:    5,
				RetryDelay:    10 * time.Millisecond,
				MaxRetryDelay: 50 * time.Millisecond,
			}, logger)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver).NotTo(BeNil())
			Expect(attempts.Load()).To(BeNumerically(">=", int32(5)))
		})

		It("should return an error after exhausting all retries", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			}))
			defer server.Close()

			_, err := chroma.NewDriver(chroma.Config{
				URL:           server.URL,
				MaxRetries:    3,
				RetryDelay:    10 * time.Millisecond,
				MaxRetryDelay: 50 * time.Millisecond,
			}, logger)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("after 3 attempts"))
		})
	})

	Describe("Interface compliance", func() {
		It("should implement vector.Driver interface", func() {
			// Compile-time check that Driver implements vector.Driver
			var _ vector.Driver = (*chroma.Driver)(nil)
		})
	})

	Describe("Add", func() {
		var fake *fakeChroma
		var driver *chroma.Driver

		BeforeEach(func() {
			fake = newFakeChroma()

			var err error
			driver, err = chroma.NewDriver(chroma.Config{URL: fake.server.URL}, logger)
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			fake.server.Close()
		})

		It("should send ids, embeddings, documents, and metadatas", func() {
			err := driver.Add(context.Background(), []vector.Document{
				{
					ID:        "id-1",
					Text:      "Creatinine 0.9 mg/dL",
					Metadata:  map[string]string{"source": "patient_123456_lab_results.txt", "patient_id": "123456"},
					Embedding: []float32{0.1, 0.2},
				},
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(fake.lastAdd["ids"]).To(Equal([]any{"id-1"}))
			Expect(fake.lastAdd["documents"]).To(Equal([]any{"Creatinine 0.9 mg/dL"}))

			metadatas, ok := fake.lastAdd["metadatas"].([]any)
			Expect(ok).To(BeTrue())
			Expect(metadatas).To(HaveLen(1))
			meta := metadatas[0].(map[string]any)
			Expect(meta["patient_id"]).To(Equal("123456"))
		})

		It("should surface duplicate ID responses as ErrDuplicateID", func() {
			fake.addStatus = http.StatusConflict
			fake.addBody = "IDs already exist in collection"

			err := driver.Add(context.Background(), []vector.Document{
				{ID: "id-1", Embedding: []float32{0.1, 0.2}},
			})
			Expect(err).To(MatchError(vector.ErrDuplicateID))
		})
	})

	Describe("Query", func() {
		var fake *fakeChroma
		var driver *chroma.Driver

		BeforeEach(func() {
			fake = newFakeChroma()
			fake.queryResponse = map[string]any{
				"ids":       [][]string{{"id-1", "id-2"}},
				"distances": [][]float32{{0.05, 0.4}},
				"documents": [][]string{{"chunk one", "chunk two"}},
				"metadatas": [][]map[string]any{{
					{"source": "a.txt", "patient_id": "123456"},
					{"source": "b.txt"},
				}},
			}

			var err error
			driver, err = chroma.NewDriver(chroma.Config{URL: fake.server.URL}, logger)
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			fake.server.Close()
		})

		It("should map the nested response onto results in order", func() {
			results, err := driver.Query(context.Background(), []float32{0.1, 0.2}, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))

			Expect(results[0].ID).To(Equal("id-1"))
			Expect(results[0].Text).To(Equal("chunk one"))
			Expect(results[0].Metadata["patient_id"]).To(Equal("123456"))
			Expect(results[0].Distance).To(BeNumerically("~", 0.05, 0.0001))
			Expect(results[1].Distance).To(BeNumerically("~", 0.4, 0.0001))
		})

		It("should request n_results matching topK", func() {
			_, err := driver.Query(context.Background(), []float32{0.1, 0.2}, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(fake.lastQuery["n_results"]).To(BeNumerically("==", 7))
		})

		It("should return empty results for an empty response", func() {
			fake.queryResponse = map[string]any{"ids": [][]string{{}}}

			results, err := driver.Query(context.Background(), []float32{0.1, 0.2}, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})
	})

	Describe("Get", func() {
		var fake *fakeChroma
		var driver *chroma.Driver

		BeforeEach(func() {
			fake = newFakeChroma()
			fake.getResponse = map[string]any{
				"ids":       []string{"id-1"},
				"documents": []string{"patient 123456 lab work"},
				"metadatas": []map[string]any{{"source": "a.txt", "patient_id": "123456"}},
			}

			var err error
			driver, err = chroma.NewDriver(chroma.Config{URL: fake.server.URL}, logger)
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			fake.server.Close()
		})

		It("should send a where clause for metadata filters", func() {
			_, err := driver.Get(context.Background(), vector.Filter{
				Metadata: map[string]string{"patient_id": "123456"},
			})
			Expect(err).NotTo(HaveOccurred())

			where, ok := fake.lastGet["where"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(where["patient_id"]).To(Equal("123456"))
		})

		It("should send a where_document $contains clause for substring filters", func() {
			_, err := driver.Get(context.Background(), vector.Filter{
				TextContains: "123456",
			})
			Expect(err).NotTo(HaveOccurred())

			whereDoc, ok := fake.lastGet["where_document"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(whereDoc["$contains"]).To(Equal("123456"))
		})

		It("should map the response onto documents", func() {
			docs, err := driver.Get(context.Background(), vector.Filter{
				Metadata: map[string]string{"patient_id": "123456"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].ID).To(Equal("id-1"))
			Expect(docs[0].Text).To(Equal("patient 123456 lab work"))
			Expect(docs[0].Metadata["source"]).To(Equal("a.txt"))
		})
	})

	Describe("Delete", func() {
		It("should send the filter as where clauses", func() {
			fake := newFakeChroma()
			defer fake.server.Close()

			driver, err := chroma.NewDriver(chroma.Config{URL: fake.server.URL}, logger)
			Expect(err).NotTo(HaveOccurred())

			err = driver.Delete(context.Background(), vector.Filter{
				Metadata: map[string]string{"source": "a.txt"},
			})
			Expect(err).NotTo(HaveOccurred())

			where, ok := fake.lastDelete["where"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(where["source"]).To(Equal("a.txt"))
		})
	})

	Describe("Count", func() {
		It("should decode the count response", func() {
			fake := newFakeChroma()
			defer fake.server.Close()

			driver, err := chroma.NewDriver(chroma.Config{URL: fake.server.URL}, logger)
			Expect(err).NotTo(HaveOccurred())

			n, err := driver.Count(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(42))
		})
	})
})
