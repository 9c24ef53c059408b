package core

// error_messages.go defines the error taxonomy of the pipeline and how each
// kind surfaces to callers.
//
// # Error Codes Reference
//
//	REF001 - Missing reference: neither a document id nor a sheet URL was given
//	         Status: 404
//
//	REF002 - Invalid reference: sheet URL or sheet token could not be parsed
//	         Status: 404
//
//	REF003 - Sheet not found: numeric token matches neither a position nor a stable id
//	         Status: 404
//
//	UPS001 - Upstream error: the data provider rejected the metadata or values call
//	         Status: 400
//
//	AUTH001 - Unauthorized: the bearer token matched no configured key
//	          Status: 401
//
//	ERR000 - Unknown error: anything else, surfaced with its own message
//	         Status: 400
//
// Messages are returned verbatim inside the {"error": ...} envelope. Codes
// only appear in server logs for support reference.

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies an error category.
type Kind int

const (
	KindUnknown Kind = iota
	KindMissingReference
	KindInvalidReference
	KindSheetNotFound
	KindUpstream
	KindUnauthorized
)

// Sentinel values for errors.Is. Their messages are the defaults used when
// a *Error is built without one.
var (
	ErrMissingReference = &Error{Kind: KindMissingReference, Message: "URL format is /spreadsheet_id/<sheet name or index>"}
	ErrInvalidReference = &Error{Kind: KindInvalidReference, Message: "invalid sheet reference"}
	ErrSheetNotFound    = &Error{Kind: KindSheetNotFound, Message: "sheet not found"}
	ErrUpstream         = &Error{Kind: KindUpstream, Message: "upstream error"}
	ErrUnauthorized     = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
)

// Error is a pipeline error carrying its kind and a caller-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error // underlying cause, if any
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrSheetNotFound)
// holds for every sheet-not-found error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// UpstreamError wraps a provider failure, keeping the provider's message.
func UpstreamError(message string, cause error) *Error {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	if message == "" {
		message = ErrUpstream.Message
	}
	return &Error{Kind: KindUpstream, Message: message, Err: cause}
}

// UserMessage is the caller-facing rendering of an error.
type UserMessage struct {
	Message string // returned in the error envelope
	Code    string // support reference, logged server-side
	Status  int    // HTTP status
}

var kindCodes = map[Kind]UserMessage{
	KindMissingReference: {Code: "REF001", Status: http.StatusNotFound},
	KindInvalidReference: {Code: "REF002", Status: http.StatusNotFound},
	KindSheetNotFound:    {Code: "REF003", Status: http.StatusNotFound},
	KindUpstream:         {Code: "UPS001", Status: http.StatusBadRequest},
	KindUnauthorized:     {Code: "AUTH001", Status: http.StatusUnauthorized},
}

// MapError converts err to its caller-facing message, code and status.
// Errors outside the taxonomy keep their own message under ERR000 / 400.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var e *Error
	if errors.As(err, &e) {
		if msg, ok := kindCodes[e.Kind]; ok {
			msg.Message = e.Message
			return msg
		}
	}

	return UserMessage{
		Message: err.Error(),
		Code:    "ERR000",
		Status:  http.StatusBadRequest,
	}
}

// StatusCode returns the HTTP status for err.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return MapError(err).Status
}
