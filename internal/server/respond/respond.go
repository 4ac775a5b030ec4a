// Package respond writes the API's uniform JSON envelope.
package respond

import (
	"encoding/json"
	"net/http"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// JSON writes a success envelope with the given status, message, and payload.
func JSON(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, envelope{Success: true, Message: message, Data: data})
}

// Error writes a failure envelope with the given status and message.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, envelope{Success: false, Message: message})
}

// ErrorData writes a failure envelope carrying a payload, used for itemized
// validation errors.
func ErrorData(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, envelope{Success: false, Message: message, Data: data})
}

func write(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encoding a plain struct of strings and JSON-safe payloads cannot fail
	// in a way the client can still be told about.
	_ = json.NewEncoder(w).Encode(env)
}
