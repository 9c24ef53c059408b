package web

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/JonMunkholm/sheetjson/internal/core"
)

// Query parameter names.
const (
	paramDocID     = "docId"
	paramSheet     = "sheet"
	paramSheetURL  = "sheetUrl"
	paramRowLimit  = "rowLimit"
	paramRowOffset = "rowOffset"
)

// queryRequest builds a SheetRequest from the query string. The sheet
// token is taken still encoded so it is decoded exactly once, by the
// resolver. Unparseable row parameters become 0.
func queryRequest(r *http.Request) core.SheetRequest {
	q := r.URL.Query()
	return core.SheetRequest{
		DocumentID: q.Get(paramDocID),
		SheetToken: rawQueryValue(r.URL.RawQuery, paramSheet),
		SourceURL:  q.Get(paramSheetURL),
		RowLimit:   atoiOrZero(q.Get(paramRowLimit)),
		RowOffset:  atoiOrZero(q.Get(paramRowOffset)),
	}
}

// rawQueryValue returns the first undecoded value of name in rawQuery.
func rawQueryValue(rawQuery, name string) string {
	for rawQuery != "" {
		var pair string
		pair, rawQuery, _ = strings.Cut(rawQuery, "&")
		key, value, _ := strings.Cut(pair, "=")
		if k, err := url.QueryUnescape(key); err == nil && k == name {
			return value
		}
	}
	return ""
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
