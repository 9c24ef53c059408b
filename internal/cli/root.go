// Package cli implements sheetctl, a command-line front end to the sheet
// pipeline for inspecting documents without running the server.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

// globalFlags are shared by every subcommand that talks to a provider.
type globalFlags struct {
	provider string
	xlsxDir  string
	apiKey   string
	baseURL  string
	logLevel string
}

func NewRootCmd() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:   "sheetctl",
		Short: "Query spreadsheets through the sheetjson pipeline",
		Long: "sheetctl resolves sheet references, applies row windows and prints column JSON " +
			"exactly as the sheetjson server would, without the edge cache.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.provider, "provider", "", "Data provider: google or xlsx (env PROVIDER_KIND)")
	pf.StringVar(&g.xlsxDir, "xlsx-dir", "", "Directory of <docId>.xlsx files (env XLSX_DIR)")
	pf.StringVar(&g.apiKey, "api-key", "", "Google Sheets API key (env GOOGLE_API_KEY)")
	pf.StringVar(&g.baseURL, "base-url", "", "Google Sheets API endpoint (env GOOGLE_SHEETS_BASE_URL)")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level for stderr diagnostics (env LOG_LEVEL)")

	root.AddCommand(
		newFetchCmd(&g),
		newTabsCmd(&g),
		newWindowCmd(),
	)

	root.Version = Version
	root.SetVersionTemplate(fmt.Sprintf("sheetctl %s\n", Version))

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
