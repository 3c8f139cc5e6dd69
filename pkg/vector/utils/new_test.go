package vectorutils

import (
	"context"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chartdexhq/chartdex/pkg/logger"
)

func TestVectorUtils(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Vector Utils Suite")
}

var _ = Describe("NewDriver", func() {
	It("rejects unsupported providers", func() {
		_, err := NewDriver(context.Background(), &NewDriverOpts{
			ProviderType: "pinecone",
			Logger:       logger.Nop(),
		})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unsupported vector store provider"))
	})

	It("builds a sqlitevec driver from a file path", func() {
		driver, err := NewDriver(context.Background(), &NewDriverOpts{
			ProviderType: "sqlitevec",
			TargetURL:    filepath.Join(GinkgoT().TempDir(), "chartdex.db"),
			Dimensions:   3,
			Logger:       logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(driver.Close()).To(Succeed())
	})
})

var _ = Describe("splitHostPort", func() {
	DescribeTable("parsing provider endpoints",
		func(target, wantHost string, wantPort int) {
			host, port, err := splitHostPort(target)
			Expect(err).NotTo(HaveOccurred())
			Expect(host).To(Equal(wantHost))
			Expect(port).To(Equal(wantPort))
		},
		Entry("bare host", "localhost", "localhost", 0),
		Entry("host and port", "localhost:6334", "localhost", 6334),
		Entry("url form", "http://qdrant.internal:6334", "qdrant.internal", 6334),
	)

	It("rejects an empty address", func() {
		_, _, err := splitHostPort("")
		Expect(err).To(HaveOccurred())
	})

	It("rejects a non-numeric port", func() {
		_, _, err := splitHostPort("localhost:grpc")
		Expect(err).To(HaveOccurred())
	})
})
