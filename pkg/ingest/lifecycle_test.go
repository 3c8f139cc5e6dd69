package ingest_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chartdexhq/chartdex/pkg/datadir"
	"github.com/chartdexhq/chartdex/pkg/document"
	"github.com/chartdexhq/chartdex/pkg/ingest"
)

var _ = Describe("Document lifecycle", func() {
	var paths datadir.Paths

	writeRaw := func(name, content string) {
		GinkgoHelper()
		Expect(os.WriteFile(filepath.Join(paths.Raw, name), []byte(content), 0o644)).To(Succeed())
	}

	BeforeEach(func() {
		root := GinkgoT().TempDir()
		paths = datadir.Paths{
			Root:      root,
			Raw:       filepath.Join(root, "raw"),
			Processed: filepath.Join(root, "processed"),
			VectorDB:  filepath.Join(root, "processed", "vector_db"),
		}
		Expect(os.MkdirAll(paths.Raw, 0o755)).To(Succeed())
		Expect(os.MkdirAll(paths.Processed, 0o755)).To(Succeed())
	})

	Describe("RemoveDocument", func() {
		It("deletes the raw file and its sidecar", func() {
			writeRaw("notes.txt", "patient notes")
			chunks := []document.Chunk{{Text: "patient notes", Metadata: map[string]string{"source": "notes.txt"}}}
			Expect(ingest.WriteSidecar(paths.Processed, "notes.txt", chunks)).To(Succeed())

			Expect(ingest.RemoveDocument(paths, "notes.txt")).To(Succeed())

			Expect(filepath.Join(paths.Raw, "notes.txt")).NotTo(BeAnExistingFile())
			Expect(ingest.IsProcessed(paths.Processed, "notes.txt")).To(BeFalse())
		})

		It("deletes a raw file that was never processed", func() {
			writeRaw("pending.txt", "not yet ingested")

			Expect(ingest.RemoveDocument(paths, "pending.txt")).To(Succeed())
			Expect(filepath.Join(paths.Raw, "pending.txt")).NotTo(BeAnExistingFile())
		})

		It("errors for an unknown document", func() {
			err := ingest.RemoveDocument(paths, "ghost.txt")
			Expect(err).To(MatchError(ContainSubstring(`no document named "ghost.txt"`)))
		})

		It("leaves other documents alone", func() {
			writeRaw("keep.txt", "keep me")
			writeRaw("drop.txt", "drop me")

			Expect(ingest.RemoveDocument(paths, "drop.txt")).To(Succeed())
			Expect(filepath.Join(paths.Raw, "keep.txt")).To(BeAnExistingFile())
		})
	})

	Describe("Purge", func() {
		It("removes every raw file and sidecar", func() {
			writeRaw("a.txt", "one")
			writeRaw("b.txt", "two")
			Expect(ingest.WriteSidecar(paths.Processed, "a.txt", nil)).To(Succeed())

			removed, err := ingest.Purge(paths)
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(Equal(2))

			Expect(filepath.Join(paths.Raw, "a.txt")).NotTo(BeAnExistingFile())
			Expect(filepath.Join(paths.Raw, "b.txt")).NotTo(BeAnExistingFile())
			Expect(ingest.IsProcessed(paths.Processed, "a.txt")).To(BeFalse())
		})

		It("removes orphan sidecars whose raw file is already gone", func() {
			Expect(ingest.WriteSidecar(paths.Processed, "orphan.txt", nil)).To(Succeed())

			removed, err := ingest.Purge(paths)
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(BeZero())
			Expect(ingest.IsProcessed(paths.Processed, "orphan.txt")).To(BeFalse())
		})

		It("leaves the vector store directory in place", func() {
			Expect(os.MkdirAll(paths.VectorDB, 0o755)).To(Succeed())
			writeRaw("a.txt", "one")

			_, err := ingest.Purge(paths)
			Expect(err).NotTo(HaveOccurred())
			Expect(paths.VectorDB).To(BeADirectory())
		})
	})
})
