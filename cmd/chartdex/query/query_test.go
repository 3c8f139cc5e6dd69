package querycmder_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	querycmder "github.com/chartdexhq/chartdex/cmd/chartdex/query"
)

func TestQueryCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Query Command Suite")
}

var _ = Describe("NewQueryCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := querycmder.NewQueryCmd()
		Expect(cmd.Use).To(Equal("query <text>"))
	})

	It("has a --json flag", func() {
		cmd := querycmder.NewQueryCmd()
		Expect(cmd.Flags().Lookup("json")).NotTo(BeNil())
	})

	It("has a --top-k flag with the -k shorthand", func() {
		cmd := querycmder.NewQueryCmd()
		flag := cmd.Flags().Lookup("top-k")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("k"))
	})

	It("rejects missing query text", func() {
		cmd := querycmder.NewQueryCmd()
		cmd.SetArgs([]string{})
		Expect(cmd.Execute()).NotTo(Succeed())
	})

	It("rejects multiple arguments", func() {
		cmd := querycmder.NewQueryCmd()
		cmd.SetArgs([]string{"chest", "pain"})
		Expect(cmd.Execute()).NotTo(Succeed())
	})
})

var _ = Describe("Query command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "chartdex-query-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// Create a local .chartdex dir so the manager picks it up
		Expect(os.MkdirAll(filepath.Join(tmpDir, ".chartdex"), 0o755)).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	It("reports no results against an empty store", func() {
		cmd := querycmder.NewQueryCmd()
		cmd.SetArgs([]string{"medication allergies"})
		Expect(cmd.Execute()).To(Succeed())
	})

	It("emits JSON output against an empty store", func() {
		cmd := querycmder.NewQueryCmd()
		cmd.SetArgs([]string{"medication allergies", "--json"})
		Expect(cmd.Execute()).To(Succeed())
	})
})
