// Package provider implements spreadsheet data providers for the core
// pipeline: the Google Sheets v4 REST API and local .xlsx workbooks.
package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/JonMunkholm/sheetjson/internal/core"
	"github.com/tidwall/gjson"
)

// DefaultGoogleBaseURL is the Sheets API endpoint.
const DefaultGoogleBaseURL = "https://sheets.googleapis.com"

// maxBodySize caps how much of an upstream response is read.
const maxBodySize = 64 << 20

// GoogleSheets reads spreadsheets through the Sheets v4 REST API with an
// API key. Each call is a single attempt; errors are not retried.
type GoogleSheets struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewGoogleSheets creates a provider. An empty baseURL uses the public
// endpoint and a nil client uses http.DefaultClient.
func NewGoogleSheets(baseURL, apiKey string, client *http.Client) *GoogleSheets {
	if baseURL == "" {
		baseURL = DefaultGoogleBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &GoogleSheets{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

// Metadata lists the document's tabs in positional order.
func (g *GoogleSheets) Metadata(ctx context.Context, documentID string) (core.Metadata, error) {
	body, err := g.get(ctx, "/v4/spreadsheets/"+url.PathEscape(documentID))
	if err != nil {
		return core.Metadata{}, err
	}

	sheets := gjson.GetBytes(body, "sheets").Array()
	meta := core.Metadata{Tabs: make([]core.Tab, 0, len(sheets))}
	for i, s := range sheets {
		props := s.Get("properties")
		meta.Tabs = append(meta.Tabs, core.Tab{
			Index:    i,
			StableID: props.Get("sheetId").Int(),
			Title:    props.Get("title").String(),
		})
	}
	return meta, nil
}

// Values returns the sheet's rows with the first row as headers.
// Cells keep their JSON type: strings stay strings, numbers become float64.
func (g *GoogleSheets) Values(ctx context.Context, sheet core.ResolvedSheet) (core.RawTable, error) {
	path := "/v4/spreadsheets/" + url.PathEscape(sheet.DocumentID) + "/values/" + url.PathEscape(sheet.Title)
	body, err := g.get(ctx, path)
	if err != nil {
		return core.RawTable{}, err
	}

	rows := gjson.GetBytes(body, "values").Array()
	values := make([][]core.Value, len(rows))
	for i, row := range rows {
		cells := row.Array()
		values[i] = make([]core.Value, len(cells))
		for j, cell := range cells {
			values[i][j] = cellValue(cell)
		}
	}
	return core.NewRawTable(values), nil
}

// get performs one GET and returns the body, or an upstream error carrying
// the API's error.message when the payload has one.
func (g *GoogleSheets) get(ctx context.Context, path string) ([]byte, error) {
	u := g.baseURL + path
	if g.apiKey != "" {
		u += "?key=" + url.QueryEscape(g.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, core.UpstreamError("", fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, core.UpstreamError("", redactKey(err, g.apiKey))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, core.UpstreamError("", fmt.Errorf("read response: %w", err))
	}

	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
		return nil, core.UpstreamError(msg.String(), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, core.UpstreamError(fmt.Sprintf("upstream returned %s", resp.Status), nil)
	}
	if !gjson.ValidBytes(body) {
		return nil, core.UpstreamError("upstream returned invalid JSON", nil)
	}
	return body, nil
}

// cellValue converts a JSON cell to a raw scalar.
func cellValue(r gjson.Result) core.Value {
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.Number:
		return r.Float()
	case gjson.True, gjson.False:
		return r.Bool()
	default:
		return r.String()
	}
}

// redactKey strips the API key from transport errors, which embed the URL.
func redactKey(err error, key string) error {
	if key == "" {
		return err
	}
	msg := strings.ReplaceAll(err.Error(), url.QueryEscape(key), "REDACTED")
	return fmt.Errorf("%s", msg)
}
