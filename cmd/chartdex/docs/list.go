package docscmder

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chartdexhq/chartdex/cmd/chartdex/cmdutil"
	"github.com/chartdexhq/chartdex/pkg/cliui"
	"github.com/chartdexhq/chartdex/pkg/config"
	"github.com/chartdexhq/chartdex/pkg/datadir"
	"github.com/chartdexhq/chartdex/pkg/ingest"
)

const listLongDesc string = `List documents in the raw directory.

Shows each document's size, category, and whether it has been indexed.

Examples:
  chartdex docs list`

const listShortDesc string = "List documents and their index status"

// categories maps file extensions to the clinical document categories
// chartdex indexes.
var categories = map[string]string{
	".pdf":  "Medical Records",
	".docx": "Medical Notes",
	".txt":  "Lab Results",
	".md":   "Patient History",
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := cmdutil.Viper(cmd)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagDataDir})

			paths, err := cmdutil.Layout(cmd, v)
			if err != nil {
				return err
			}

			return runList(paths)
		},
	}

	return cmd
}

func runList(paths datadir.Paths) error {
	docs, err := datadir.ListRaw(paths)
	if err != nil {
		return err
	}

	if len(docs) == 0 {
		fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("No documents. Add one with \"chartdex docs add <path>\"."))
		return nil
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })

	fmt.Printf("\n%s %s\n\n",
		cliui.HeaderStyle.Render("Documents in"),
		cliui.DimStyle.Render(paths.Raw),
	)

	maxLen := 0
	for _, d := range docs {
		if len(d.Name) > maxLen {
			maxLen = len(d.Name)
		}
	}

	for _, d := range docs {
		category := categories[strings.ToLower(filepath.Ext(d.Name))]
		if category == "" {
			category = "Other"
		}

		status := cliui.DimStyle.Render("pending")
		if ingest.IsProcessed(paths.Processed, d.Name) {
			if n, err := ingest.CountChunks(paths.Processed, d.Name); err == nil {
				status = cliui.NameStyle.Render(fmt.Sprintf("indexed (%d chunks)", n))
			} else {
				status = cliui.NameStyle.Render("indexed")
			}
		}

		fmt.Printf("  %s  %8s  %-16s  %s\n",
			cliui.ValueStyle.Render(fmt.Sprintf("%-*s", maxLen, d.Name)),
			cliui.FormatBytes(d.Size),
			category,
			status,
		)
	}

	fmt.Println()
	return nil
}
