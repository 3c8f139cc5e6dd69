package storecmder

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chartdexhq/chartdex/pkg/cliui"
	"github.com/chartdexhq/chartdex/pkg/ingest"
)

const resetLongDesc string = `Delete all indexed data.

Removes the live vector store directory and reopens an empty store.
Snapshots are untouched. With --purge, raw documents and chunk sidecars
are deleted too, returning the data directory to a clean slate.

Examples:
  chartdex store reset
  chartdex store reset --purge`

const resetShortDesc string = "Delete all indexed data"

type resetCommander struct {
	purge bool
}

func newResetCmd() *cobra.Command {
	cmder := &resetCommander{}

	cmd := &cobra.Command{
		Use:   "reset",
		Short: resetShortDesc,
		Long:  resetLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().BoolVar(&cmder.purge, "purge", false, "Also delete raw documents and chunk sidecars")

	return cmd
}

func (c *resetCommander) run(cmd *cobra.Command) error {
	st, paths, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := cliui.Step(os.Stdout, "Resetting vector store", func() error {
		return st.Reset(cmd.Context())
	}); err != nil {
		return err
	}

	fmt.Printf("\n  %s Vector store reset\n", cliui.SuccessMark)

	if c.purge {
		removed, err := ingest.Purge(paths)
		if err != nil {
			return err
		}
		fmt.Printf("  %s Purged %s raw documents and their sidecars\n",
			cliui.SuccessMark,
			cliui.NameStyle.Render(fmt.Sprintf("%d", removed)),
		)
	}

	fmt.Println()
	return nil
}
