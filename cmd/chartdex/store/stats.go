package storecmder

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/chartdexhq/chartdex/pkg/cliui"
)

const statsLongDesc string = `Show vector store stats.

Displays the configured provider, the number of indexed entries, the
data directory, and existing snapshots.

Examples:
  chartdex store stats`

const statsShortDesc string = "Show entry count and snapshots"

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: statsShortDesc,
		Long:  statsLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd)
		},
	}

	return cmd
}

func runStats(cmd *cobra.Command) error {
	st, paths, v, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	count, err := st.Count(cmd.Context())
	if err != nil {
		return fmt.Errorf("counting entries: %w", err)
	}

	snaps, err := st.Snapshots()
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s  %s\n", cliui.KeyStyle.Render("Provider: "), cliui.ValueStyle.Render(v.GetString("vector_store.provider")))
	fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("Entries:  "), cliui.NameStyle.Render(strconv.Itoa(count)))
	fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("Data dir: "), cliui.DimStyle.Render(paths.Root))

	if len(snaps) == 0 {
		fmt.Printf("  %s  %s\n\n", cliui.KeyStyle.Render("Snapshots:"), cliui.DimStyle.Render("none"))
		return nil
	}

	fmt.Printf("  %s\n", cliui.KeyStyle.Render("Snapshots:"))
	for _, snap := range snaps {
		fmt.Printf("    %s %s\n",
			cliui.DimStyle.Render(snap.CreatedAt.Format("2006-01-02 15:04:05")),
			snap.Path,
		)
	}

	fmt.Println()
	return nil
}
