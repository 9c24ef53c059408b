package provider

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/sheetjson/internal/config"
	"github.com/JonMunkholm/sheetjson/internal/core"
)

// New builds the provider selected by cfg.Kind.
func New(cfg *config.ProviderConfig) (core.Provider, error) {
	switch strings.ToLower(cfg.Kind) {
	case config.ProviderGoogle:
		client := &http.Client{Timeout: cfg.HTTPTimeout}
		return NewGoogleSheets(cfg.GoogleBaseURL, cfg.GoogleAPIKey, client), nil
	case config.ProviderXLSX:
		return NewWorkbook(cfg.XLSXDir), nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Kind)
	}
}
