package cli

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/sheetjson/internal/core"
	"github.com/spf13/cobra"
)

func newWindowCmd() *cobra.Command {
	var rows, limit, offset int

	cmd := &cobra.Command{
		Use:   "window",
		Short: "Show which rows a limit and offset select",
		Long:  "Compute the inclusive row window for a table of --rows body rows without fetching anything.",
		Example: "  sheetctl window --rows 10 --limit 3 --offset 2    # start=2 end=4 count=3\n" +
			"  sheetctl window --rows 10 --limit -2 --offset -3  # start=5 end=6 count=2",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rows < 0 {
				return errors.New("--rows must not be negative")
			}
			w := core.SelectWindow(rows, limit, offset)
			if w.Empty() {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "empty")
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "start=%d end=%d count=%d\n", w.Start, w.End, w.Len())
			return err
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 0, "Number of body rows (header excluded)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Row limit")
	cmd.Flags().IntVar(&offset, "offset", 0, "Row offset")

	return cmd
}
