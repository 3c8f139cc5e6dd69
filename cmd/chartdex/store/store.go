// Package storecmder provides the store command group for vector store
// lifecycle operations.
package storecmder

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chartdexhq/chartdex/cmd/chartdex/cmdutil"
	"github.com/chartdexhq/chartdex/pkg/config"
	"github.com/chartdexhq/chartdex/pkg/datadir"
	"github.com/chartdexhq/chartdex/pkg/store"
)

const storeLongDesc string = `Manage the vector store.

Lifecycle operations for the on-disk vector store: point-in-time
snapshots (the newest three are kept), restore, reset, permissions
repair, and stats.

Use subcommands to operate on the store:
  chartdex store snapshot   Create a snapshot
  chartdex store restore    Restore a snapshot
  chartdex store reset      Delete all indexed data
  chartdex store repair     Fix file permissions under the store
  chartdex store stats      Show entry count and snapshots

Examples:
  chartdex store snapshot
  chartdex store restore --latest
  chartdex store reset --purge
  chartdex store stats`

const storeShortDesc string = "Manage the vector store"

// storeFlagKeys lists the registry flags store subcommands bind into
// viper.
var storeFlagKeys = []string{
	config.FlagDataDir,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagVectorStoreColl,
}

type storeCommander struct {
	vectorStoreProvider   string
	vectorStoreTarget     string
	vectorStoreCollection string
}

func NewStoreCmd() *cobra.Command {
	cmder := &storeCommander{}

	cmd := &cobra.Command{
		Use:   "store",
		Short: storeShortDesc,
		Long:  storeLongDesc,
	}

	config.AddPersistentStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cmder.vectorStoreProvider)
	config.AddPersistentStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cmder.vectorStoreTarget)
	config.AddPersistentStringFlag(cmd, config.Flags, config.FlagVectorStoreColl, &cmder.vectorStoreCollection)

	cmd.AddCommand(newSnapshotCmd())
	cmd.AddCommand(newRestoreCmd())
	cmd.AddCommand(newResetCmd())
	cmd.AddCommand(newRepairCmd())
	cmd.AddCommand(newStatsCmd())

	return cmd
}

// openStore builds the config chain and opens the configured store.
func openStore(cmd *cobra.Command) (*store.Manager, datadir.Paths, *viper.Viper, error) {
	v, err := cmdutil.Viper(cmd)
	if err != nil {
		return nil, datadir.Paths{}, nil, err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, storeFlagKeys)

	paths, err := cmdutil.Layout(cmd, v)
	if err != nil {
		return nil, datadir.Paths{}, nil, err
	}

	st, err := cmdutil.OpenStore(cmd.Context(), v, paths, cmdutil.Logger(cmd))
	if err != nil {
		return nil, datadir.Paths{}, nil, err
	}

	return st, paths, v, nil
}
