package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/JonMunkholm/sheetjson/internal/core"
	"github.com/spf13/cobra"
)

func newFetchCmd(g *globalFlags) *cobra.Command {
	var (
		doc, sheetURL, sheet string
		limit, offset        int
		pretty               bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Print a sheet as column JSON",
		Long: "Resolve a sheet by document id and sheet (title, position or stable id) or by a " +
			"shared URL, apply the row window and print the {\"cols\": ...} envelope.",
		Example: "  sheetctl fetch --doc 1AbC --sheet \"Q3 Sales\" --limit 10\n" +
			"  sheetctl fetch --url 'https://docs.google.com/spreadsheets/d/1AbC/edit#gid=0' --limit -5",
		RunE: func(cmd *cobra.Command, args []string) error {
			if doc == "" && sheetURL == "" {
				return errors.New("one of --doc or --url is required")
			}

			ctx, src, err := g.setup(cmd)
			if err != nil {
				return err
			}

			svc := core.NewService(src, nil, core.DefaultCachePolicy(), nil)
			proj, err := svc.Fetch(ctx, core.SheetRequest{
				DocumentID: doc,
				SheetToken: url.QueryEscape(sheet),
				SourceURL:  sheetURL,
				RowLimit:   limit,
				RowOffset:  offset,
			})
			if err != nil {
				return userError(err)
			}

			body, err := core.EncodeProjection(proj)
			if err != nil {
				return err
			}
			if pretty {
				var buf bytes.Buffer
				if err := json.Indent(&buf, body, "", "  "); err != nil {
					return err
				}
				body = buf.Bytes()
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(body))
			return err
		},
	}

	cmd.Flags().StringVar(&doc, "doc", "", "Document id")
	cmd.Flags().StringVar(&sheetURL, "url", "", "Shared document URL (overrides --doc, and --sheet when it has a gid)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet title, position or stable id (default: first tab)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Rows to keep: N from the front, -N from the back, 0 for all")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip before the limit applies (negative trims the tail)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the JSON output")

	return cmd
}
