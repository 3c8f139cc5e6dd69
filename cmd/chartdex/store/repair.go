package storecmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chartdexhq/chartdex/pkg/cliui"
)

const repairLongDesc string = `Fix file permissions under the vector store.

Walks the store directory setting directories to 0755 and files to
0644. Useful after restoring a snapshot copied from another machine or
user. Paths that cannot be fixed are reported without aborting the
walk.

Examples:
  chartdex store repair`

const repairShortDesc string = "Fix file permissions under the store"

func newRepairCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repair",
		Short: repairShortDesc,
		Long:  repairLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRepair(cmd)
		},
	}

	return cmd
}

func runRepair(cmd *cobra.Command) error {
	st, _, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	report, err := st.RepairPermissions()
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s Repaired permissions %s\n",
		cliui.SuccessMark,
		cliui.DimStyle.Render(fmt.Sprintf("(%d dirs, %d files)", report.DirsFixed, report.FilesFixed)),
	)

	for _, failure := range report.Failures {
		fmt.Printf("  %s %s %s\n",
			cliui.FailMark,
			failure.Path,
			cliui.DimStyle.Render(failure.Err.Error()),
		)
	}

	fmt.Println()
	return nil
}
