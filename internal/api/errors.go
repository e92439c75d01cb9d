package api

import (
	"fmt"
	"net/http"
)

// The responder speaks plain text, so error responses are short
// text/plain bodies rather than JSON envelopes. A route miss is a
// per-request condition surfaced to the client, never a process error.

// WriteText writes a textual response with the given status and content type.
func WriteText(w http.ResponseWriter, status int, contentType, body string) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = fmt.Fprint(w, body)
}

// NotFound writes a 404 Not Found error
func NotFound(w http.ResponseWriter) {
	WriteText(w, http.StatusNotFound, PlainTextContentType, "Not Found")
}

// InternalError writes a 500 Internal Server Error
func InternalError(w http.ResponseWriter) {
	WriteText(w, http.StatusInternalServerError, PlainTextContentType, "Internal Server Error")
}
