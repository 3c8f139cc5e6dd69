// Package configcmder provides the config command for managing persistent
// chartdex configuration stored in the .chartdex/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent chartdex configuration.

Configuration is stored as config.toml in the .chartdex/ directory and
provides default values for command flags. CLI flags always take
precedence over config file values, and CHARTDEX_* environment
variables sit between the two.

Keys use dotted notation matching the TOML section structure:
  storage.data_dir,
  vector_store.provider, vector_store.target, vector_store.collection,
  vector_store.api_key,
  embedding.provider, embedding.target, embedding.model,
  embedding.dimensions, embedding.api_key,
  chunking.chunk_size, chunking.chunk_overlap,
  events.provider, events.brokers, events.topic,
  client.top_k

Use subcommands to get, set, or list configuration values:
  chartdex config set <key> <value>   Set a configuration value
  chartdex config get <key>           Get a configuration value
  chartdex config list                List all configuration values
  chartdex config preset <name>       Write a named provider preset

Examples:
  chartdex config set embedding.model nomic-embed-text
  chartdex config get vector_store.provider
  chartdex config preset openai
  chartdex config list`

const configShortDesc string = "Manage persistent chartdex configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newPresetCmd())

	return cmd
}
