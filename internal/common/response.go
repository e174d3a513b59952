package common

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the payload under "error" in every failed response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Envelope is the top-level shape of every JSON response: exactly one of
// Data or Error is set.
type Envelope struct {
	Data  any        `json:"data,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

// JSON writes v as the response body. Plans depend on request parameters, so
// responses are marked uncacheable for intermediaries.
func JSON(w http.ResponseWriter, status int, v any) {
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONData writes v under "data".
func JSONData(w http.ResponseWriter, status int, v any) {
	JSON(w, status, Envelope{Data: v})
}

// JSONError writes an error envelope.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, Envelope{Error: &ErrorBody{Code: code, Message: message, Details: details}})
}
