package core

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
)

// DefaultSheetToken addresses the first tab by position.
const DefaultSheetToken = "0"

var (
	docIDPattern = regexp.MustCompile(`/d/([A-Za-z0-9_-]+)`)
	gidPattern   = regexp.MustCompile(`gid=([0-9]+)`)
)

// SheetURL is what could be extracted from a shared document URL.
type SheetURL struct {
	DocumentID string
	StableID   string // digits, empty when the URL names no tab
}

// ParseSheetURL extracts the document id and optional gid from a shared
// document URL of the form .../d/<documentId>/...gid=<digits>.
// When several /d/ segments occur the last one wins, and the gid is the last
// gid= occurring after it.
func ParseSheetURL(raw string) (SheetURL, bool) {
	docs := docIDPattern.FindAllStringSubmatchIndex(raw, -1)
	if len(docs) == 0 {
		return SheetURL{}, false
	}
	last := docs[len(docs)-1]
	out := SheetURL{DocumentID: raw[last[2]:last[3]]}

	rest := raw[last[1]:]
	if gids := gidPattern.FindAllStringSubmatch(rest, -1); len(gids) > 0 {
		out.StableID = gids[len(gids)-1][1]
	}
	return out, true
}

// IsNumericToken reports whether a decoded sheet token addresses a tab by
// number: it must be non-empty and consist of ASCII digits only. Signs,
// whitespace and decimal points make the token a title.
func IsNumericToken(token string) bool {
	if token == "" {
		return false
	}
	for i := 0; i < len(token); i++ {
		if token[i] < '0' || token[i] > '9' {
			return false
		}
	}
	return true
}

// DecodeSheetToken URL-decodes a sheet token, treating '+' as a space.
func DecodeSheetToken(token string) (string, error) {
	decoded, err := url.QueryUnescape(token)
	if err != nil {
		return "", newError(KindInvalidReference, "invalid sheet token %q", token)
	}
	return decoded, nil
}

// Resolve turns a request into the (document, title) pair it refers to.
// A source URL that parses overrides the document id and, when it names a
// gid, the sheet token; one that does not parse is ignored if a document id
// was also given.
// lookup is only called when the decoded sheet token is numeric; a literal
// title is trusted as-is without a metadata round-trip.
func Resolve(ctx context.Context, req SheetRequest, lookup MetadataFunc) (ResolvedSheet, error) {
	if req.DocumentID == "" && req.SourceURL == "" {
		return ResolvedSheet{}, ErrMissingReference
	}

	docID, token := req.DocumentID, req.SheetToken
	if req.SourceURL != "" {
		parsed, ok := ParseSheetURL(req.SourceURL)
		switch {
		case ok:
			docID = parsed.DocumentID
			if parsed.StableID != "" {
				token = parsed.StableID
			}
		case docID == "":
			return ResolvedSheet{}, newError(KindInvalidReference, "cannot find a document id in sheet URL %q", req.SourceURL)
		}
	}

	if token == "" {
		token = DefaultSheetToken
	}

	decoded, err := DecodeSheetToken(token)
	if err != nil {
		return ResolvedSheet{}, err
	}

	if !IsNumericToken(decoded) {
		return ResolvedSheet{DocumentID: docID, Title: decoded}, nil
	}

	meta, err := lookup(ctx, docID)
	if err != nil {
		return ResolvedSheet{}, err
	}

	tab, ok := findNumbered(meta, decoded)
	if !ok {
		return ResolvedSheet{}, newError(KindSheetNotFound, "There is no sheet number %s", decoded)
	}
	return ResolvedSheet{DocumentID: docID, Title: tab.Title}, nil
}

// findNumbered tries n as a position first, then as a stable id.
func findNumbered(meta Metadata, digits string) (Tab, bool) {
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return Tab{}, false
	}
	if n < int64(len(meta.Tabs)) {
		if tab, ok := meta.TabAt(int(n)); ok {
			return tab, true
		}
	}
	return meta.TabByStableID(n)
}
