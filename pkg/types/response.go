// Package types holds the JSON envelope shapes shared by every endpoint.
package types

// SuccessEnvelope wraps every successful payload under a "data" key so
// clients can decode uniformly regardless of the resource returned.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error body. Details carries field-level
// validation problems and is omitted for codes that hide internals.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
