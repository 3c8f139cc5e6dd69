package docscmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chartdexhq/chartdex/cmd/chartdex/cmdutil"
	"github.com/chartdexhq/chartdex/pkg/cliui"
	"github.com/chartdexhq/chartdex/pkg/config"
	"github.com/chartdexhq/chartdex/pkg/datadir"
	"github.com/chartdexhq/chartdex/pkg/ingest"
)

const rmLongDesc string = `Remove a document.

Deletes the raw file, its chunk sidecar, and every vector store entry
indexed from it. The filename is the stored name shown by
"chartdex docs list", not the original upload path.

Examples:
  chartdex docs rm 3f9a1c2e_patient_12345_notes.txt`

const rmShortDesc string = "Remove a document and its indexed chunks"

// rmFlagKeys lists the registry flags rm binds into viper.
var rmFlagKeys = []string{
	config.FlagDataDir,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagVectorStoreColl,
}

type rmCommander struct {
	vectorStoreProvider   string
	vectorStoreTarget     string
	vectorStoreCollection string
}

func newRmCmd() *cobra.Command {
	cmder := &rmCommander{}

	cmd := &cobra.Command{
		Use:   "rm <filename>",
		Short: rmShortDesc,
		Long:  rmLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRm(cmd, args[0])
		},
		ValidArgsFunction: func(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}

			v, err := cmdutil.Viper(cmd)
			if err != nil {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			paths, err := cmdutil.Layout(cmd, v)
			if err != nil {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			docs, err := datadir.ListRaw(paths)
			if err != nil {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}

			names := make([]string, 0, len(docs))
			for _, d := range docs {
				names = append(names, d.Name)
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cmder.vectorStoreProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cmder.vectorStoreTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreColl, &cmder.vectorStoreCollection)

	return cmd
}

func runRm(cmd *cobra.Command, filename string) error {
	ctx := cmd.Context()
	logger := cmdutil.Logger(cmd)

	v, err := cmdutil.Viper(cmd)
	if err != nil {
		return err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, rmFlagKeys)

	paths, err := cmdutil.Layout(cmd, v)
	if err != nil {
		return err
	}

	if err := ingest.RemoveDocument(paths, filename); err != nil {
		return err
	}

	st, err := cmdutil.OpenStore(ctx, v, paths, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeleteBySource(ctx, filename); err != nil {
		return fmt.Errorf("removing indexed chunks for %s: %w", filename, err)
	}

	fmt.Printf("\n  %s Removed %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(filename),
	)

	return nil
}
