package storecmder

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chartdexhq/chartdex/pkg/cliui"
	"github.com/chartdexhq/chartdex/pkg/store"
)

const snapshotLongDesc string = `Create a point-in-time snapshot of the vector store.

The store directory is copied to a timestamped sibling. Only the three
newest snapshots are kept; older ones are pruned.

Examples:
  chartdex store snapshot`

const snapshotShortDesc string = "Create a snapshot"

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: snapshotShortDesc,
		Long:  snapshotLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSnapshot(cmd)
		},
	}

	return cmd
}

func runSnapshot(cmd *cobra.Command) error {
	st, _, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	var snap *store.Snapshot
	if err := cliui.Step(os.Stdout, "Creating snapshot", func() error {
		var snapErr error
		snap, snapErr = st.Snapshot(cmd.Context())
		return snapErr
	}); err != nil {
		return err
	}

	fmt.Printf("\n  %s Snapshot created %s\n\n",
		cliui.SuccessMark,
		cliui.DimStyle.Render(snap.Path),
	)

	return nil
}
