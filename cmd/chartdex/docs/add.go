package docscmder

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/chartdexhq/chartdex/cmd/chartdex/cmdutil"
	"github.com/chartdexhq/chartdex/pkg/cliui"
	"github.com/chartdexhq/chartdex/pkg/config"
	"github.com/chartdexhq/chartdex/pkg/loader"
)

const addLongDesc string = `Copy a document into the raw directory.

The file is stored under a unique name so repeated uploads of the same
filename never collide. Run "chartdex ingest" afterwards to index it.

Examples:
  chartdex docs add ./patient_12345_notes.txt
  chartdex docs add /exports/patient_445566_labs.pdf`

const addShortDesc string = "Copy a document into the raw directory"

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: addShortDesc,
		Long:  addLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := cmdutil.Viper(cmd)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagDataDir})

			paths, err := cmdutil.Layout(cmd, v)
			if err != nil {
				return err
			}

			return runAdd(args[0], paths.Raw)
		},
	}

	return cmd
}

func runAdd(src, rawDir string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", src)
	}

	base := filepath.Base(src)
	if !loader.NewRegistry().Supported(base) {
		return fmt.Errorf("unsupported document type %q (supported: .pdf, .docx, .txt, .md)", filepath.Ext(base))
	}

	// Unique prefix keeps repeated uploads of the same filename apart
	// while leaving any patient identifier in the name intact.
	name := uuid.NewString()[:8] + "_" + base
	dest := filepath.Join(rawDir, name)

	if err := copyFile(src, dest); err != nil {
		return fmt.Errorf("copying %s: %w", src, err)
	}

	fmt.Printf("\n  %s Added %s %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(name),
		cliui.DimStyle.Render(fmt.Sprintf("(%s)", cliui.FormatBytes(info.Size()))),
	)
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Run \"chartdex ingest\" to index it."))

	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
