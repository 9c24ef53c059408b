package web

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/JonMunkholm/sheetjson/internal/core"
	"github.com/JonMunkholm/sheetjson/internal/logging"
)

// handleRoot answers GET /. Without a query it is a liveness ping;
// with one it is a sheet request addressed entirely by parameters.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.RawQuery == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.serveSheet(w, r, queryRequest(r))
}

// handlePath answers /{docId} and /{docId}/{sheet}. Query parameters
// still apply; path segments take precedence over docId and sheet.
func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	req := queryRequest(r)

	docID, sheet, ok := splitSheetPath(r.URL.EscapedPath())
	if !ok {
		s.respondError(w, r, core.ErrMissingReference)
		return
	}
	req.DocumentID = docID
	if sheet != "" {
		req.SheetToken = sheet
	}
	s.serveSheet(w, r, req)
}

// handleStatus reports cache and background write counters.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.service.Status())
}

// serveSheet runs the pipeline, writes the response and only then hands
// the cache entry to the background writer.
func (s *Server) serveSheet(w http.ResponseWriter, r *http.Request, req core.SheetRequest) {
	ctx := r.Context()
	req.Tier = core.TrustTierFromContext(ctx)

	plan := s.service.Policy().Plan(r.URL, req.Tier, r.Header.Get(core.MaxAgeHeader))
	resp, entry := s.service.Serve(ctx, req, plan)

	if err := resp.WriteTo(w); err != nil {
		logging.FromContext(ctx).Debug("client went away", "error", err)
	}
	s.service.StoreAsync(ctx, entry)
}

// splitSheetPath splits an escaped path into a decoded document id and a
// still-encoded sheet token. More than two segments is an error.
func splitSheetPath(escaped string) (docID, sheet string, ok bool) {
	parts := strings.Split(strings.TrimPrefix(escaped, "/"), "/")
	if len(parts) == 0 || len(parts) > 2 {
		return "", "", false
	}

	docID, err := url.PathUnescape(parts[0])
	if err != nil || docID == "" {
		return "", "", false
	}

	if len(parts) == 2 {
		// Left encoded: the resolver decodes it, '+' as a space.
		sheet = parts[1]
	}
	return docID, sheet, true
}
