package handler

// RESPONSE HELPERS:
// Every JSON body leaves through writeJSON so headers, status and encoding
// happen in the same order everywhere.
//
// ERROR FORMAT:
// Transport failures (bad JSON, wrong method) use the GraphQL error shape so
// clients only ever parse one format:
//   {"errors": [{"message": "request body is not valid JSON"}]}

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the body sent when a request never reaches the executor.
type ErrorResponse struct {
	Errors []ErrorMessage `json:"errors"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be set before the body is encoded.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; the best we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError sends a transport-level failure.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		Errors: []ErrorMessage{{Message: message}},
	})
}
