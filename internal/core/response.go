package core

import (
	"encoding/json"
	"net/http"
)

// CacheStatusHeader exposes whether a response came from the edge cache.
const CacheStatusHeader = "Cache-Status"

// CacheStatus values.
const (
	CacheHit  = "HIT"
	CacheMiss = "MISS"
)

// Response is an assembled HTTP response, independent of the transport.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

type successEnvelope struct {
	Cols Projection `json:"cols"`
}

type errorEnvelope struct {
	Error string `json:"error"`
}

// EncodeProjection serializes the success envelope {"cols": ...}.
func EncodeProjection(p Projection) ([]byte, error) {
	return json.Marshal(successEnvelope{Cols: p})
}

// Success wraps an encoded success body with the plan's cache headers.
func Success(body []byte, plan CachePlan, cacheStatus string) Response {
	h := baseHeader()
	h.Set("Cache-Control", plan.CacheControl())
	if cacheStatus != "" {
		h.Set(CacheStatusHeader, cacheStatus)
	}
	return Response{Status: http.StatusOK, Header: h, Body: body}
}

// Failure renders err as the {"error": ...} envelope with its mapped status.
func Failure(err error) Response {
	msg := MapError(err)
	body, mErr := json.Marshal(errorEnvelope{Error: msg.Message})
	if mErr != nil {
		body = []byte(`{"error":"internal error"}`)
	}
	return Response{Status: msg.Status, Header: baseHeader(), Body: body}
}

// WriteTo copies the response onto w, replacing any header values
// already set for the same names.
func (r Response) WriteTo(w http.ResponseWriter) error {
	h := w.Header()
	for k, vs := range r.Header {
		h[k] = append([]string(nil), vs...)
	}
	w.WriteHeader(r.Status)
	_, err := w.Write(r.Body)
	return err
}

func baseHeader() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("Access-Control-Allow-Origin", "*")
	return h
}
