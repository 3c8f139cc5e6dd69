package docscmder_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	docscmder "github.com/chartdexhq/chartdex/cmd/chartdex/docs"
	"github.com/chartdexhq/chartdex/pkg/ingest"
)

func TestDocsCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Docs Command Suite")
}

var _ = Describe("NewDocsCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := docscmder.NewDocsCmd()
		Expect(cmd.Use).To(Equal("docs"))
	})

	It("has add, list, and rm subcommands", func() {
		cmd := docscmder.NewDocsCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("add", "list", "rm"))
	})
})

var _ = Describe("Docs command execution", func() {
	var (
		tmpDir  string
		origDir string
		rawDir  string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "chartdex-docs-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// Create a local .chartdex dir so the manager picks it up
		rawDir = filepath.Join(tmpDir, ".chartdex", "raw")
		Expect(os.MkdirAll(rawDir, 0o755)).To(Succeed())

		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	Describe("add subcommand", func() {
		It("copies the document into raw/ under a unique name", func() {
			src := filepath.Join(tmpDir, "patient_12345_notes.txt")
			Expect(os.WriteFile(src, []byte("clinical note"), 0o644)).To(Succeed())

			cmd := docscmder.NewDocsCmd()
			cmd.SetArgs([]string{"add", src})
			Expect(cmd.Execute()).To(Succeed())

			entries, err := os.ReadDir(rawDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Name()).To(HaveSuffix("_patient_12345_notes.txt"))

			data, err := os.ReadFile(filepath.Join(rawDir, entries[0].Name()))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("clinical note"))
		})

		It("keeps repeated uploads of the same filename apart", func() {
			src := filepath.Join(tmpDir, "labs.txt")
			Expect(os.WriteFile(src, []byte("lab panel"), 0o644)).To(Succeed())

			for range 2 {
				cmd := docscmder.NewDocsCmd()
				cmd.SetArgs([]string{"add", src})
				Expect(cmd.Execute()).To(Succeed())
			}

			entries, err := os.ReadDir(rawDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(2))
		})

		It("rejects unsupported document types", func() {
			src := filepath.Join(tmpDir, "report.exe")
			Expect(os.WriteFile(src, []byte("binary"), 0o644)).To(Succeed())

			cmd := docscmder.NewDocsCmd()
			cmd.SetArgs([]string{"add", src})
			err := cmd.Execute()
			Expect(err).To(MatchError(ContainSubstring("unsupported document type")))
		})

		It("rejects directories", func() {
			src := filepath.Join(tmpDir, "folder.txt")
			Expect(os.Mkdir(src, 0o755)).To(Succeed())

			cmd := docscmder.NewDocsCmd()
			cmd.SetArgs([]string{"add", src})
			err := cmd.Execute()
			Expect(err).To(MatchError(ContainSubstring("is a directory")))
		})

		It("errors for a missing source file", func() {
			cmd := docscmder.NewDocsCmd()
			cmd.SetArgs([]string{"add", filepath.Join(tmpDir, "nope.txt")})
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("list subcommand", func() {
		It("runs without error when the raw directory is empty", func() {
			cmd := docscmder.NewDocsCmd()
			cmd.SetArgs([]string{"list"})
			Expect(cmd.Execute()).To(Succeed())
		})

		It("runs without error with documents present", func() {
			Expect(os.WriteFile(filepath.Join(rawDir, "notes.txt"), []byte("note"), 0o644)).To(Succeed())

			processed := filepath.Join(tmpDir, ".chartdex", "processed")
			Expect(os.MkdirAll(processed, 0o755)).To(Succeed())
			Expect(ingest.WriteSidecar(processed, "notes.txt", nil)).To(Succeed())

			cmd := docscmder.NewDocsCmd()
			cmd.SetArgs([]string{"list"})
			Expect(cmd.Execute()).To(Succeed())
		})

		It("rejects any arguments", func() {
			cmd := docscmder.NewDocsCmd()
			cmd.SetArgs([]string{"list", "extra"})
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("rm subcommand", func() {
		It("errors for an unknown document", func() {
			cmd := docscmder.NewDocsCmd()
			cmd.SetArgs([]string{"rm", "ghost.txt"})
			err := cmd.Execute()
			Expect(err).To(MatchError(ContainSubstring(`no document named "ghost.txt"`)))
		})

		It("removes the raw file and its sidecar", func() {
			Expect(os.WriteFile(filepath.Join(rawDir, "notes.txt"), []byte("note"), 0o644)).To(Succeed())

			processed := filepath.Join(tmpDir, ".chartdex", "processed")
			Expect(os.MkdirAll(processed, 0o755)).To(Succeed())
			Expect(ingest.WriteSidecar(processed, "notes.txt", nil)).To(Succeed())

			cmd := docscmder.NewDocsCmd()
			cmd.SetArgs([]string{"rm", "notes.txt"})
			Expect(cmd.Execute()).To(Succeed())

			Expect(filepath.Join(rawDir, "notes.txt")).NotTo(BeAnExistingFile())
			Expect(ingest.IsProcessed(processed, "notes.txt")).To(BeFalse())
		})
	})
})
