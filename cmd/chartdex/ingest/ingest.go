package ingestcmder

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chartdexhq/chartdex/cmd/chartdex/cmdutil"
	"github.com/chartdexhq/chartdex/pkg/chunker"
	"github.com/chartdexhq/chartdex/pkg/cliui"
	"github.com/chartdexhq/chartdex/pkg/config"
	"github.com/chartdexhq/chartdex/pkg/ingest"
)

const ingestLongDesc string = `Process raw documents into the vector store.

Loads every unprocessed document from the raw directory, splits it into
chunks, embeds the chunks, and writes them to the vector store. Files
that fail are reported and skipped; the rest of the run continues.

Examples:
  chartdex ingest
  chartdex ingest --watch
  chartdex ingest --chunk-size 500 --chunk-overlap 100
  chartdex ingest --embedding-provider openai --embedding-model text-embedding-3-small`

const ingestShortDesc string = "Process raw documents into the vector store"

// ingestFlagKeys lists the registry flags ingest binds into viper.
var ingestFlagKeys = []string{
	config.FlagDataDir,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagVectorStoreColl,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagChunkSize,
	config.FlagChunkOverlap,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
	config.FlagEventsTopic,
}

type ingestCommander struct {
	watch bool

	vectorStoreProvider   string
	vectorStoreTarget     string
	vectorStoreCollection string
	embeddingProvider     string
	embeddingTarget       string
	embeddingModel        string
	embeddingDims         uint
	chunkSize             uint
	chunkOverlap          uint
	eventsProvider        string
	eventsBrokers         string
	eventsTopic           string

	viper *viper.Viper
}

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			v, err := cmdutil.Viper(cmd)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, ingestFlagKeys)
			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Keep watching the raw directory for new documents")

	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cmder.vectorStoreProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cmder.vectorStoreTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreColl, &cmder.vectorStoreCollection)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embeddingProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.embeddingTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.embeddingDims)
	config.AddUintFlag(cmd, config.Flags, config.FlagChunkSize, &cmder.chunkSize)
	config.AddUintFlag(cmd, config.Flags, config.FlagChunkOverlap, &cmder.chunkOverlap)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsBrokers, &cmder.eventsBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsTopic, &cmder.eventsTopic)

	return cmd
}

func (c *ingestCommander) run(cmd *cobra.Command) error {
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

	publisher, err := cmdutil.NewPublisher(v, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	splitter := chunker.New(
		chunker.WithChunkSize(int(v.GetUint("chunking.chunk_size"))),
		chunker.WithChunkOverlap(int(v.GetUint("chunking.chunk_overlap"))),
	)

	pipeline, err := ingest.New(&ingest.Config{
		Splitter:  splitter,
		Embedder:  embedder,
		Store:     st,
		Publisher: publisher,
		Paths:     paths,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	var result *ingest.Result
	if err := cliui.Step(os.Stdout, "Processing documents", func() error {
		var runErr error
		result, runErr = pipeline.Run(ctx)
		return runErr
	}); err != nil {
		return err
	}

	printResult(result)

	if !c.watch {
		return nil
	}

	watchCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Watching "+paths.Raw+" for new documents (ctrl-c to stop)"))
	return pipeline.Watch(watchCtx)
}

func printResult(result *ingest.Result) {
	fmt.Printf("\n  %s Processed %s documents %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(strconv.Itoa(len(result.Processed))),
		cliui.DimStyle.Render(fmt.Sprintf("(%d chunks)", result.ChunksWritten)),
	)

	if result.BatchesSkipped > 0 {
		fmt.Printf("  %s\n", cliui.DimStyle.Render(fmt.Sprintf("%d embedding batches skipped", result.BatchesSkipped)))
	}

	for _, failure := range result.Failed {
		fmt.Printf("  %s %s %s\n",
			cliui.FailMark,
			filepath.Base(failure.Path),
			cliui.DimStyle.Render(failure.Err.Error()),
		)
	}

	fmt.Println()
}
