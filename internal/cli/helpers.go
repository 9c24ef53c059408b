package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/JonMunkholm/sheetjson/internal/config"
	"github.com/JonMunkholm/sheetjson/internal/core"
	"github.com/JonMunkholm/sheetjson/internal/logging"
	"github.com/JonMunkholm/sheetjson/internal/provider"
	"github.com/spf13/cobra"
)

// lookupEnv overlays non-empty flag values on the process environment so
// the server's config loader and validation apply unchanged. The CLI
// never caches.
func (g *globalFlags) lookupEnv() func(string) string {
	overrides := map[string]string{
		"PROVIDER_KIND":          g.provider,
		"XLSX_DIR":               g.xlsxDir,
		"GOOGLE_API_KEY":         g.apiKey,
		"GOOGLE_SHEETS_BASE_URL": g.baseURL,
		"LOG_LEVEL":              g.logLevel,
		"CACHE_BACKEND":          config.CacheNone,
	}
	return func(key string) string {
		if v := overrides[key]; v != "" {
			return v
		}
		return os.Getenv(key)
	}
}

// setup loads configuration, builds the provider and returns a context
// carrying a stderr logger.
func (g *globalFlags) setup(cmd *cobra.Command) (context.Context, core.Provider, error) {
	cfg, err := config.LoadFunc(g.lookupEnv())
	if err != nil {
		return nil, nil, err
	}

	src, err := provider.New(&cfg.Provider)
	if err != nil {
		return nil, nil, err
	}

	logger := logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, "text")
	ctx := logging.ContextWithLogger(cmd.Context(), logger)
	return ctx, src, nil
}

// userError renders err the way the server's error envelope would, with
// the support code appended.
func userError(err error) error {
	msg := core.MapError(err)
	return fmt.Errorf("%s (%s)", msg.Message, msg.Code)
}
