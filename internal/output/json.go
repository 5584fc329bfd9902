// Package output prints the CLI's JSON envelope to stdout.
package output

import (
	"encoding/json"
	"os"
)

// Response is the envelope every command prints.
type Response struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// Success wraps a successful response with data.
func Success(data any) Response {
	return Response{OK: true, Data: data}
}

// Error wraps an error in a response.
func Error(err error) Response {
	return Response{OK: false, Error: err.Error()}
}

// Print prints a value as JSON to stdout. Output is compact by default;
// set KUDOS_PRETTY_JSON=1 for indented output.
func Print(v any) error {
	enc := json.NewEncoder(os.Stdout)
	if os.Getenv("KUDOS_PRETTY_JSON") == "1" || os.Getenv("KUDOS_PRETTY_JSON") == "true" {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// PrintSuccess prints a success response.
func PrintSuccess(data any) error {
	return Print(Success(data))
}

// PrintError prints an error response.
func PrintError(err error) error {
	return Print(Error(err))
}
