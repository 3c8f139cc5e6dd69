// Package querycmder provides the query command for semantic retrieval.
package querycmder

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
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sourceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	previewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const queryLongDesc string = `Search indexed documents by meaning.

Embeds the query text and returns the closest chunks from the vector
store, ranked by distance. Lower scores are closer matches.

Example:
  chartdex query "medication allergies"
  chartdex query "recent lab results" --top-k 10
  chartdex query "chest pain history" --json`

const queryShortDesc string = "Search indexed documents"

// queryFlagKeys lists the registry flags query binds into viper.
var queryFlagKeys = []string{
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

type queryCommander struct {
	query   string
	jsonOut bool

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

// queryResult is the machine-readable shape of one retrieved chunk.
type queryResult struct {
	Rank     int               `json:"rank"`
	Score    float32           `json:"score"`
	Source   string            `json:"source,omitempty"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// queryOutput is the machine-readable shape of a query run.
type queryOutput struct {
	Query   string        `json:"query"`
	Count   int           `json:"count"`
	Results []queryResult `json:"results"`
}

func NewQueryCmd() *cobra.Command {
	cmder := &queryCommander{}

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: queryShortDesc,
		Long:  queryLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			v, err := cmdutil.Viper(cmd)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, queryFlagKeys)
			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]
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

func (c *queryCommander) run(cmd *cobra.Command) error {
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

	results := r.Query(ctx, c.query, 0)

	if c.jsonOut {
		return printJSON(os.Stdout, c.query, results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("\n%s %s\n\n",
		headerStyle.Render("Results for:"),
		sourceStyle.Render(fmt.Sprintf("%q", c.query)),
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

	fmt.Printf("  %s  %s  %s\n",
		rankStyle.Render(fmt.Sprintf("#%d", rank)),
		scoreStyle.Render(fmt.Sprintf("score: %.4f", result.Score)),
		sourceStyle.Render(source),
	)

	preview := strings.ReplaceAll(result.Text, "\n", " ")
	fmt.Printf("  %s\n", previewStyle.Render(utils.Truncate(preview, 100)))

	if id := result.Metadata["patient_id"]; id != "" {
		fmt.Printf("  %s\n", dimStyle.Render("patient: "+id))
	}

	fmt.Println()
}

func printJSON(w io.Writer, query string, results []retriever.Result) error {
	out := queryOutput{
		Query:   query,
		Count:   len(results),
		Results: make([]queryResult, 0, len(results)),
	}

	for i, r := range results {
		out.Results = append(out.Results, queryResult{
			Rank:     i + 1,
			Score:    r.Score,
			Source:   r.Metadata["source"],
			Text:     r.Text,
			Metadata: r.Metadata,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
