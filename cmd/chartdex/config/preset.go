package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chartdexhq/chartdex/pkg/cliui"
	"github.com/chartdexhq/chartdex/pkg/config"
)

const presetLongDesc string = `Write a named provider preset to the config file.

Replaces the config.toml contents with a coherent configuration for the
named embedding provider. Existing values are overwritten.

Presets:
  ollama   local Ollama at http://localhost:11434 with nomic-embed-text
  openai   OpenAI at https://api.openai.com/v1 with text-embedding-3-small
           (set embedding.api_key or CHARTDEX_EMBEDDING_API_KEY afterwards)

Examples:
  chartdex config preset ollama
  chartdex config preset openai`

const presetShortDesc string = "Write a named provider preset"

func newPresetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset <name>",
		Short: presetShortDesc,
		Long:  presetLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			return runPreset(args[0], dataDir)
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.ValidPresetNames(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	return cmd
}

func runPreset(name, dataDir string) error {
	cfg, err := config.PresetConfig(name)
	if err != nil {
		return fmt.Errorf("%w\n\nValid presets: %s", err, strings.Join(config.ValidPresetNames(), ", "))
	}

	cfger, err := config.NewConfiger(dataDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Printf("\n  %s Applied preset %s %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(strings.ToLower(name)),
		cliui.DimStyle.Render(cfger.GetTarget()),
	)

	return nil
}
