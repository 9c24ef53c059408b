package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newTabsCmd(g *globalFlags) *cobra.Command {
	var (
		doc    string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "tabs",
		Short: "List a document's tabs",
		Long:  "Print each tab's position, stable id and title, the values a numeric --sheet resolves against.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, src, err := g.setup(cmd)
			if err != nil {
				return err
			}

			meta, err := src.Metadata(ctx, doc)
			if err != nil {
				return userError(err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(meta.Tabs)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "INDEX\tSHEET ID\tTITLE")
			for _, tab := range meta.Tabs {
				fmt.Fprintf(tw, "%d\t%d\t%s\n", tab.Index, tab.StableID, tab.Title)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&doc, "doc", "", "Document id")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	_ = cmd.MarkFlagRequired("doc")

	return cmd
}
