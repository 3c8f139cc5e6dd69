// Package patientcmder provides the patient command for exact-match
// patient record lookup.
package patientcmder

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chartdexhq/chartdex/cmd/chartdex/cmdutil"
	"github.com/chartdexhq/chartdex/pkg/config"
	"github.com/chartdexhq/chartdex/pkg/retriever"
	"github.com/chartdexhq/chartdex/pkg/utils"
)

var (
	rankStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	sourceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	previewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const patientLongDesc string = `Fetch all indexed chunks for one patient.

Looks up records by exact patient ID match on chunk metadata. Falling
back to raw document text only when metadata is missing, this never
uses semantic similarity, so an ID cannot match a different patient's
records.

Example:
  chartdex patient 12345
  chartdex patient 12345 --json`

const patientShortDesc string = "Fetch records for a patient ID"

// patientFlagKeys lists the registry flags patient binds into viper.
var patientFlagKeys = []string{
	config.FlagDataDir,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagVectorStoreColl,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagTopK,
}

type patientCommander struct {
	patientID string
	jsonOut   bool

	topK                  uint
	vectorStoreProvider   string
	vectorStoreTarget     string
	vectorStoreCollection string
	embeddingProvider     string
	embeddingTarget       string
	embeddingModel        string
	embeddingDims         uint

	viper *viper.Viper
}

// patientResult is the machine-readable shape of one patient chunk.
type patientResult struct {
	Rank     int               `json:"rank"`
	Source   string            `json:"source,omitempty"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// patientOutput is the machine-readable shape of a patient lookup.
type patientOutput struct {
	PatientID string          `json:"patient_id"`
	Count     int             `json:"count"`
	Results   []patientResult `json:"results"`
}

func NewPatientCmd() *cobra.Command {
	cmder := &patientCommander{}

	cmd := &cobra.Command{
		Use:   "patient <id>",
		Short: patientShortDesc,
		Long:  patientLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			v, err := cmdutil.Viper(cmd)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, patientFlagKeys)
			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.patientID = args[0]
			return cmder.run(cmd)
		},
	}

	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Output results as JSON")

	config.AddUintFlag(cmd, config.Flags, config.FlagTopK, &cmder.topK)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cmder.vectorStoreProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cmder.vectorStoreTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreColl, &cmder.vectorStoreCollection)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embeddingProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.embeddingTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.embeddingDims)

	return cmd
}

func (c *patientCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	logger := cmdutil.Logger(cmd)
	v := c.viper

	paths, err := cmdutil.Layout(cmd, v)
	if err != nil {
		return err
	}

	st, err := cmdutil.OpenStore(ctx, v, paths, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	embedder, err := cmdutil.NewEmbedder(v, paths)
	if err != nil {
		return err
	}
	defer embedder.Close()

	r := retriever.New(st, embedder,
		retriever.WithTopK(int(v.GetUint("client.top_k"))),
		retriever.WithLogger(logger),
	)

	results := r.PatientDocuments(ctx, c.patientID)

	if c.jsonOut {
		return printJSON(os.Stdout, c.patientID, results)
	}

	if len(results) == 0 {
		fmt.Printf("No records found for patient %s.\n", c.patientID)
		return nil
	}

	fmt.Printf("\n%s %s %s\n\n",
		headerStyle.Render("Records for patient:"),
		sourceStyle.Render(c.patientID),
		dimStyle.Render(fmt.Sprintf("(%d chunks)", len(results))),
	)

	for i, result := range results {
		printResult(i+1, result)
	}

	return nil
}

func printResult(rank int, result retriever.Result) {
	source := result.Metadata["source"]
	if source == "" {
		source = "(unknown source)"
	}

	fmt.Printf("  %s  %s\n",
		rankStyle.Render(fmt.Sprintf("#%d", rank)),
		sourceStyle.Render(source),
	)

	preview := strings.ReplaceAll(result.Text, "\n", " ")
	fmt.Printf("  %s\n\n", previewStyle.Render(utils.Truncate(preview, 100)))
}

func printJSON(w io.Writer, patientID string, results []retriever.Result) error {
	out := patientOutput{
		PatientID: patientID,
		Count:     len(results),
		Results:   make([]patientResult, 0, len(results)),
	}

	for i, r := range results {
		out.Results = append(out.Results, patientResult{
			Rank:     i + 1,
			Source:   r.Metadata["source"],
			Text:     r.Text,
			Metadata: r.Metadata,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
