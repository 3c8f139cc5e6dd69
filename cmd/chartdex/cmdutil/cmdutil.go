// Package cmdutil wires the shared runtime pieces chartdex commands need:
// the viper config chain, the data directory layout, the vector store, and
// a logger honoring the persistent --debug and --log-file flags.
package cmdutil

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chartdexhq/chartdex/pkg/config"
	"github.com/chartdexhq/chartdex/pkg/credentials"
	"github.com/chartdexhq/chartdex/pkg/datadir"
	"github.com/chartdexhq/chartdex/pkg/embeddings"
	embeddingutils "github.com/chartdexhq/chartdex/pkg/embeddings/utils"
	"github.com/chartdexhq/chartdex/pkg/eventstream"
	"github.com/chartdexhq/chartdex/pkg/eventstream/kafka"
	"github.com/chartdexhq/chartdex/pkg/eventstream/nop"
	"github.com/chartdexhq/chartdex/pkg/logger"
	"github.com/chartdexhq/chartdex/pkg/store"
)

// DataDir returns the value of the persistent --data-dir flag, or empty
// when unset so the default .chartdex resolution applies.
func DataDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("data-dir")
	return dir
}

// Logger builds the command logger from the persistent --debug and
// --log-file flags. Human-facing logs go to stderr so stdout stays clean
// for command output; --log-file tees structured JSON into a file.
func Logger(cmd *cobra.Command) *slog.Logger {
	debug, _ := cmd.Flags().GetBool("debug")
	logFile, _ := cmd.Flags().GetString("log-file")

	log := logger.New(
		logger.WithPretty(true),
		logger.WithDebug(debug),
		logger.WithWriter(os.Stderr),
	)

	if logFile == "" {
		return log
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Warn("opening log file", "path", logFile, "error", err)
		return log
	}

	return logger.Multi(log, logger.New(
		logger.WithJSON(true),
		logger.WithDebug(debug),
		logger.WithWriter(f),
	))
}

// Viper resolves the config chain (flags > env > config.toml > defaults)
// rooted at the --data-dir override.
func Viper(cmd *cobra.Command) (*viper.Viper, error) {
	return config.InitViper(DataDir(cmd))
}

// Layout resolves the data directory layout. The --data-dir flag wins;
// otherwise storage.data_dir from the config chain applies before the
// default .chartdex resolution.
func Layout(cmd *cobra.Command, v *viper.Viper) (datadir.Paths, error) {
	dir := DataDir(cmd)
	if dir == "" {
		dir = v.GetString("storage.data_dir")
	}
	return datadir.NewManager().Layout(dir)
}

// OpenStore opens the vector store manager from resolved config.
func OpenStore(ctx context.Context, v *viper.Viper, paths datadir.Paths, log *slog.Logger) (*store.Manager, error) {
	provider := v.GetString("vector_store.provider")

	apiKey, err := resolveKey(v, "vector_store.api_key", provider, paths)
	if err != nil {
		return nil, err
	}

	return store.New(ctx, store.Config{
		Path:           paths.VectorDB,
		Provider:       provider,
		TargetURL:      v.GetString("vector_store.target"),
		CollectionName: v.GetString("vector_store.collection"),
		Dimensions:     v.GetUint("embedding.dimensions"),
		APIKey:         apiKey,
	}, log)
}

// NewEmbedder constructs the embedding client from resolved config.
func NewEmbedder(v *viper.Viper, paths datadir.Paths) (embeddings.Embedder, error) {
	provider := v.GetString("embedding.provider")

	apiKey, err := resolveKey(v, "embedding.api_key", provider, paths)
	if err != nil {
		return nil, err
	}

	return embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: provider,
		TargetURL:    v.GetString("embedding.target"),
		Model:        v.GetString("embedding.model"),
		APIKey:       apiKey,
		Dimensions:   v.GetUint("embedding.dimensions"),
	})
}

// resolveKey returns the API key from the config chain, falling back to a
// key stored via chartdex auth. Keyless providers never touch the
// credentials file.
func resolveKey(v *viper.Viper, key, provider string, paths datadir.Paths) (string, error) {
	k := v.GetString(key)
	if k != "" || !credentials.IsSupportedProvider(provider) {
		return k, nil
	}

	mgr, err := credentials.NewManager(paths.Root)
	if err != nil {
		return "", err
	}

	return mgr.GetKey(provider)
}

// NewPublisher constructs the document-processed event publisher from
// resolved config. The default is the no-op publisher.
func NewPublisher(v *viper.Viper, log *slog.Logger) (eventstream.Publisher, error) {
	provider := v.GetString("events.provider")
	switch provider {
	case "", "nop":
		return nop.NewPublisher(), nil

	case "kafka":
		return kafka.NewPublisher(kafka.Config{
			Brokers: SplitBrokers(v.GetString("events.brokers")),
			Topic:   v.GetString("events.topic"),
		}, log)

	default:
		return nil, fmt.Errorf("unsupported events provider: %s", provider)
	}
}

// SplitBrokers splits a comma-separated broker list, dropping empty
// entries and surrounding whitespace.
func SplitBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			out = append(out, b)
		}
	}
	return out
}
