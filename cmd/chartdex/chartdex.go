// Package chartdexcmder
package chartdexcmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/chartdexhq/chartdex/cmd/chartdex/auth"
	configcmder "github.com/chartdexhq/chartdex/cmd/chartdex/config"
	docscmder "github.com/chartdexhq/chartdex/cmd/chartdex/docs"
	ingestcmder "github.com/chartdexhq/chartdex/cmd/chartdex/ingest"
	patientcmder "github.com/chartdexhq/chartdex/cmd/chartdex/patient"
	querycmder "github.com/chartdexhq/chartdex/cmd/chartdex/query"
	storecmder "github.com/chartdexhq/chartdex/cmd/chartdex/store"
	versioncmder "github.com/chartdexhq/chartdex/cmd/version"
)

const chartdexLongDesc string = `Chartdex indexes clinical documents for retrieval.

Feed it patient records and it chunks, embeds, and stores them for
semantic search and exact patient lookup:
  chartdex docs add      Stage a document for ingestion
  chartdex ingest        Process staged documents into the vector store
  chartdex query         Semantic search across all documents
  chartdex patient       Exact lookup of one patient's documents`

const chartdexShortDesc string = "Chartdex - Clinical Document Retrieval"

func NewChartdexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chartdex",
		Short: chartdexShortDesc,
		Long:  chartdexLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("data-dir", "", "Override the .chartdex data directory")
	cmd.PersistentFlags().String("log-file", "", "Tee structured JSON logs into a file")

	// Add subcommands
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(querycmder.NewQueryCmd())
	cmd.AddCommand(patientcmder.NewPatientCmd())
	cmd.AddCommand(docscmder.NewDocsCmd())
	cmd.AddCommand(storecmder.NewStoreCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
