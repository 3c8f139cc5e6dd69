package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"

	"github.com/chartdexhq/chartdex/pkg/datadir"
	"github.com/chartdexhq/chartdex/pkg/document"
	"github.com/chartdexhq/chartdex/pkg/eventstream"
	"github.com/chartdexhq/chartdex/pkg/ingest"
	"github.com/chartdexhq/chartdex/pkg/loader"
	"github.com/chartdexhq/chartdex/pkg/logger"
	"github.com/chartdexhq/chartdex/pkg/store"
	testutils "github.com/chartdexhq/chartdex/pkg/utils/test"
)

func TestIngest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ingest Suite")
}

// stubStore records Add batches and can fail a configured number of
// them to drive the snapshot recovery path.
type stubStore struct {
	mu           sync.Mutex
	added        [][]document.Chunk
	failuresLeft int
	failCount    int
	snapErr      error
	snapCalls    int
	restored     []*store.Snapshot
	restoreErr   error
}

func (s *stubStore) Add(_ context.Context, chunks []document.Chunk, _ [][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failuresLeft > 0 {
		s.failuresLeft--
		s.failCount++
		return fmt.Errorf("add failure %d", s.failCount)
	}

	cp := make([]document.Chunk, len(chunks))
	copy(cp, chunks)
	s.added = append(s.added, cp)
	return nil
}

func (s *stubStore) Snapshot(context.Context) (*store.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapCalls++
	if s.snapErr != nil {
		return nil, s.snapErr
	}
	return &store.Snapshot{Path: "/snapshots/test", CreatedAt: time.Now()}, nil
}

func (s *stubStore) Restore(_ context.Context, snap *store.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.restoreErr != nil {
		return s.restoreErr
	}
	s.restored = append(s.restored, snap)
	return nil
}

func (s *stubStore) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for _, batch := range s.added {
		for _, c := range batch {
			out = append(out, c.Text)
		}
	}
	return out
}

func (s *stubStore) restoreCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.restored)
}

// capturePublisher records published events.
type capturePublisher struct {
	mu     sync.Mutex
	events []*eventstream.DocumentProcessedEvent
	pubErr error
}

func (c *capturePublisher) PublishDocument(_ context.Context, event *eventstream.DocumentProcessedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pubErr != nil {
		return c.pubErr
	}
	c.events = append(c.events, event)
	return nil
}

func (c *capturePublisher) Close() error { return nil }

func (c *capturePublisher) byFilename(name string) *eventstream.DocumentProcessedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.events {
		if e.Filename == name {
			return e
		}
	}
	return nil
}

func (c *capturePublisher) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

var _ = Describe("Pipeline", func() {
	var (
		ctx       context.Context
		paths     datadir.Paths
		embedder  *testutils.MockEmbedder
		st        *stubStore
		publisher *capturePublisher
	)

	newPipeline := func() *ingest.Pipeline {
		p, err := ingest.New(&ingest.Config{
			Embedder:  embedder,
			Store:     st,
			Publisher: publisher,
			Paths:     paths,
			Logger:    logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		return p
	}

	writeRaw := func(name, content string) {
		Expect(os.WriteFile(filepath.Join(paths.Raw, name), []byte(content), 0o644)).To(Succeed())
	}

	BeforeEach(func() {
		ctx = context.Background()
		root := GinkgoT().TempDir()
		paths = datadir.Paths{
			Root:      root,
			Raw:       filepath.Join(root, "raw"),
			Processed: filepath.Join(root, "processed"),
			VectorDB:  filepath.Join(root, "processed", "vector_db"),
		}
		Expect(os.MkdirAll(paths.Raw, 0o755)).To(Succeed())
		Expect(os.MkdirAll(paths.Processed, 0o755)).To(Succeed())

		embedder = testutils.NewMockEmbedder()
		st = &stubStore{}
		publisher = &capturePublisher{}
	})

	Describe("New", func() {
		It("requires an embedder", func() {
			_, err := ingest.New(&ingest.Config{Store: st, Paths: paths})
			Expect(err).To(MatchError(ContainSubstring("embedder is required")))
		})

		It("requires a store", func() {
			_, err := ingest.New(&ingest.Config{Embedder: embedder, Paths: paths})
			Expect(err).To(MatchError(ContainSubstring("store is required")))
		})

		It("requires data paths", func() {
			_, err := ingest.New(&ingest.Config{Embedder: embedder, Store: st})
			Expect(err).To(MatchError(ContainSubstring("paths are required")))
		})
	})

	Describe("ProcessFile", func() {
		It("writes a chunk sidecar with source and patient metadata", func() {
			writeRaw("patient_12345_notes.txt", "Patient presents with mild fever.")

			fr, err := newPipeline().ProcessFile(ctx, filepath.Join(paths.Raw, "patient_12345_notes.txt"))
			Expect(err).NotTo(HaveOccurred())
			Expect(fr.ChunkCount).To(Equal(1))
			Expect(fr.PatientID).To(Equal("12345"))

			Expect(ingest.IsProcessed(paths.Processed, "patient_12345_notes.txt")).To(BeTrue())

			chunks, err := ingest.ReadSidecar(paths.Processed, "patient_12345_notes.txt")
			Expect(err).NotTo(HaveOccurred())
			Expect(chunks).To(HaveLen(1))
			Expect(chunks[0].Text).To(ContainSubstring("mild fever"))
			Expect(chunks[0].Metadata).To(HaveKeyWithValue("source", "patient_12345_notes.txt"))
			Expect(chunks[0].Metadata).To(HaveKeyWithValue("patient_id", "12345"))
		})

		It("writes an empty sidecar for an empty document", func() {
			writeRaw("empty.txt", "")

			fr, err := newPipeline().ProcessFile(ctx, filepath.Join(paths.Raw, "empty.txt"))
			Expect(err).NotTo(HaveOccurred())
			Expect(fr.ChunkCount).To(BeZero())

			Expect(ingest.IsProcessed(paths.Processed, "empty.txt")).To(BeTrue())
			count, err := ingest.CountChunks(paths.Processed, "empty.txt")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())
		})

		It("rejects unsupported formats", func() {
			writeRaw("data.csv", "a,b,c")

			_, err := newPipeline().ProcessFile(ctx, filepath.Join(paths.Raw, "data.csv"))
			Expect(err).To(MatchError(loader.ErrUnsupportedFormat))
		})
	})

	Describe("Run", func() {
		It("processes supported files and writes every chunk to the store", func() {
			writeRaw("patient_12345_notes.txt", "Patient presents with mild fever.")
			writeRaw("guidelines.md", "General care guidelines.")
			writeRaw(".hidden.txt", "should be ignored")
			writeRaw("data.csv", "a,b,c")

			result, err := newPipeline().Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Processed).To(HaveLen(2))
			Expect(result.Failed).To(BeEmpty())
			Expect(result.ChunksWritten).To(Equal(2))
			Expect(result.BatchesSkipped).To(BeZero())

			Expect(st.texts()).To(ConsistOf(
				"Patient presents with mild fever.",
				"General care guidelines.",
			))

			Expect(ingest.IsProcessed(paths.Processed, ".hidden.txt")).To(BeFalse())
			Expect(ingest.IsProcessed(paths.Processed, "data.csv")).To(BeFalse())
		})

		It("publishes one event per processed file", func() {
			writeRaw("patient_12345_notes.txt", "Patient presents with mild fever.")
			writeRaw("guidelines.md", "General care guidelines.")

			_, err := newPipeline().Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(publisher.count()).To(Equal(2))

			event := publisher.byFilename("patient_12345_notes.txt")
			Expect(event).NotTo(BeNil())
			Expect(event.EventType).To(Equal(eventstream.EventTypeDocumentProcessed))
			Expect(event.ChunkCount).To(Equal(1))
			Expect(event.PatientID).To(Equal("12345"))

			event = publisher.byFilename("guidelines.md")
			Expect(event).NotTo(BeNil())
			Expect(event.PatientID).To(BeEmpty())
		})

		It("continues past a file that fails to load", func() {
			writeRaw("broken.docx", "this is not a zip archive")
			writeRaw("fine.txt", "a perfectly fine note")

			result, err := newPipeline().Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Processed).To(HaveLen(1))
			Expect(result.Failed).To(HaveLen(1))
			Expect(result.Failed[0].Path).To(Equal("broken.docx"))
			Expect(result.Failed[0].Err).To(HaveOccurred())
			Expect(st.texts()).To(ConsistOf("a perfectly fine note"))
		})

		It("skips a batch whose embedding fails and keeps going", func() {
			writeRaw("fail.txt", "failme")
			writeRaw("fine.txt", "a perfectly fine note")
			embedder.FailOn = "failme"

			result, err := newPipeline().Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Processed).To(HaveLen(2))
			Expect(result.BatchesSkipped).To(Equal(1))
			Expect(result.ChunksWritten).To(Equal(1))
			Expect(st.texts()).To(ConsistOf("a perfectly fine note"))
		})

		It("restores the snapshot and retries once when the store fails", func() {
			writeRaw("alpha.txt", "alpha")
			st.failuresLeft = 1

			result, err := newPipeline().Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(st.restoreCount()).To(Equal(1))
			Expect(result.ChunksWritten).To(Equal(1))
			Expect(st.texts()).To(ConsistOf("alpha"))
		})

		It("surfaces the original error when the retry also fails", func() {
			writeRaw("alpha.txt", "alpha")
			st.failuresLeft = 10

			_, err := newPipeline().Run(ctx)
			Expect(err).To(MatchError(ContainSubstring("add failure 1")))
			Expect(st.restoreCount()).To(Equal(1))
		})

		It("surfaces the original error when the restore fails", func() {
			writeRaw("alpha.txt", "alpha")
			st.failuresLeft = 1
			st.restoreErr = errors.New("restore broke")

			_, err := newPipeline().Run(ctx)
			Expect(err).To(MatchError(ContainSubstring("add failure 1")))
		})

		It("skips recovery when no snapshot was taken", func() {
			writeRaw("alpha.txt", "alpha")
			st.snapErr = errors.New("no space for snapshots")
			st.failuresLeft = 1

			_, err := newPipeline().Run(ctx)
			Expect(err).To(MatchError(ContainSubstring("add failure 1")))
			Expect(st.restoreCount()).To(BeZero())
		})

		It("never fails the run on publish errors", func() {
			writeRaw("alpha.txt", "alpha")
			publisher.pubErr = errors.New("broker down")

			result, err := newPipeline().Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Processed).To(HaveLen(1))
		})

		It("errors when the raw directory is missing", func() {
			Expect(os.RemoveAll(paths.Raw)).To(Succeed())

			_, err := newPipeline().Run(ctx)
			Expect(err).To(MatchError(ContainSubstring("reading raw directory")))
		})

		It("handles an empty raw directory", func() {
			result, err := newPipeline().Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Processed).To(BeEmpty())
			Expect(result.ChunksWritten).To(BeZero())
		})
	})

	Describe("Watch", func() {
		It("processes files as they arrive and stops on cancel", func() {
			buf := gbytes.NewBuffer()
			p, err := ingest.New(&ingest.Config{
				Embedder:  embedder,
				Store:     st,
				Publisher: publisher,
				Paths:     paths,
				Logger:    logger.New(logger.WithWriter(buf)),
			})
			Expect(err).NotTo(HaveOccurred())

			watchCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- p.Watch(watchCtx)
			}()

			Eventually(buf, "5s").Should(gbytes.Say("watching for new documents"))

			// Write to a hidden temp name first, then move into place,
			// so the create event sees a complete file.
			tmp := filepath.Join(paths.Raw, ".incoming.txt")
			Expect(os.WriteFile(tmp, []byte("walk-in visit note"), 0o644)).To(Succeed())
			Expect(os.Rename(tmp, filepath.Join(paths.Raw, "walkin_note.txt"))).To(Succeed())

			Eventually(func() bool {
				return ingest.IsProcessed(paths.Processed, "walkin_note.txt")
			}, "5s", "50ms").Should(BeTrue())

			Eventually(st.texts, "5s", "50ms").Should(ConsistOf("walk-in visit note"))
			Eventually(publisher.count, "5s", "50ms").Should(Equal(1))

			cancel()
			Eventually(done, "5s").Should(Receive(BeNil()))
		})

		It("errors when the raw directory cannot be watched", func() {
			Expect(os.RemoveAll(paths.Raw)).To(Succeed())

			err := newPipeline().Watch(ctx)
			Expect(err).To(MatchError(ContainSubstring("watching")))
		})
	})
})
