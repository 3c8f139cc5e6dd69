package storecmder

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chartdexhq/chartdex/pkg/cliui"
	"github.com/chartdexhq/chartdex/pkg/store"
)

const restoreLongDesc string = `Restore the vector store from a snapshot.

Replaces the live store directory with the snapshot's contents. Pass a
snapshot path, or --latest to restore the newest one.

Examples:
  chartdex store restore --latest
  chartdex store restore ~/.chartdex/processed/vector_db_backup_20260825_120000`

const restoreShortDesc string = "Restore a snapshot"

type restoreCommander struct {
	latest bool
}

func newRestoreCmd() *cobra.Command {
	cmder := &restoreCommander{}

	cmd := &cobra.Command{
		Use:   "restore [path]",
		Short: restoreShortDesc,
		Long:  restoreLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args)
		},
	}

	cmd.Flags().BoolVar(&cmder.latest, "latest", false, "Restore the newest snapshot")

	return cmd
}

func (c *restoreCommander) run(cmd *cobra.Command, args []string) error {
	if c.latest && len(args) == 1 {
		return fmt.Errorf("pass a snapshot path or --latest, not both")
	}
	if !c.latest && len(args) == 0 {
		return fmt.Errorf("pass a snapshot path or --latest")
	}

	st, _, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	snap := &store.Snapshot{}
	if c.latest {
		snaps, err := st.Snapshots()
		if err != nil {
			return err
		}
		if len(snaps) == 0 {
			return fmt.Errorf("no snapshots to restore")
		}
		snap = &snaps[0]
	} else {
		snap.Path = args[0]
	}

	if err := cliui.Step(os.Stdout, "Restoring snapshot", func() error {
		return st.Restore(cmd.Context(), snap)
	}); err != nil {
		return err
	}

	fmt.Printf("\n  %s Restored %s\n\n",
		cliui.SuccessMark,
		cliui.DimStyle.Render(snap.Path),
	)

	return nil
}
