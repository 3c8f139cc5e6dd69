package ingest_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chartdexhq/chartdex/pkg/document"
	"github.com/chartdexhq/chartdex/pkg/ingest"
)

var _ = Describe("Sidecar", func() {
	var processedDir string

	BeforeEach(func() {
		processedDir = GinkgoT().TempDir()
	})

	Describe("SidecarPath", func() {
		It("appends the chunks suffix to the raw filename", func() {
			path := ingest.SidecarPath(processedDir, "notes.txt")
			Expect(path).To(Equal(filepath.Join(processedDir, "notes.txt_chunks.json")))
		})
	})

	Describe("WriteSidecar and ReadSidecar", func() {
		It("round-trips chunks with their metadata in order", func() {
			chunks := []document.Chunk{
				{Text: "first", Metadata: map[string]string{"source": "notes.txt", "patient_id": "42"}},
				{Text: "second", Metadata: map[string]string{"source": "notes.txt"}},
			}

			Expect(ingest.WriteSidecar(processedDir, "notes.txt", chunks)).To(Succeed())

			got, err := ingest.ReadSidecar(processedDir, "notes.txt")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(chunks))
		})

		It("writes an empty JSON array for no chunks", func() {
			Expect(ingest.WriteSidecar(processedDir, "empty.txt", nil)).To(Succeed())

			payload, err := os.ReadFile(ingest.SidecarPath(processedDir, "empty.txt"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(payload)).To(Equal("[]"))

			got, err := ingest.ReadSidecar(processedDir, "empty.txt")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeEmpty())
		})

		It("errors on a missing sidecar", func() {
			_, err := ingest.ReadSidecar(processedDir, "never-processed.txt")
			Expect(err).To(MatchError(ContainSubstring("reading sidecar")))
		})

		It("errors on a corrupt sidecar", func() {
			Expect(os.WriteFile(ingest.SidecarPath(processedDir, "bad.txt"), []byte("{not json"), 0o644)).To(Succeed())

			_, err := ingest.ReadSidecar(processedDir, "bad.txt")
			Expect(err).To(MatchError(ContainSubstring("decoding sidecar")))
		})
	})

	Describe("IsProcessed", func() {
		It("reports sidecar presence", func() {
			Expect(ingest.IsProcessed(processedDir, "notes.txt")).To(BeFalse())

			Expect(ingest.WriteSidecar(processedDir, "notes.txt", nil)).To(Succeed())
			Expect(ingest.IsProcessed(processedDir, "notes.txt")).To(BeTrue())
		})
	})

	Describe("CountChunks", func() {
		It("counts the chunks a file produced", func() {
			chunks := []document.Chunk{
				{Text: "a", Metadata: map[string]string{"source": "notes.txt"}},
				{Text: "b", Metadata: map[string]string{"source": "notes.txt"}},
				{Text: "c", Metadata: map[string]string{"source": "notes.txt"}},
			}
			Expect(ingest.WriteSidecar(processedDir, "notes.txt", chunks)).To(Succeed())

			count, err := ingest.CountChunks(processedDir, "notes.txt")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(3))
		})

		It("errors for an unprocessed file", func() {
			_, err := ingest.CountChunks(processedDir, "nope.txt")
			Expect(err).To(HaveOccurred())
		})
	})
})
