// Package errs defines the error taxonomy shared by handlers and services.
// Handlers map these onto HTTP status codes; everything else wraps them
// with fmt.Errorf("...: %w", ...) so errors.Is keeps working.
package errs

import "errors"

var (
	// ErrNotFound means the requested market, security, trade or user has no
	// matching row. Surfaced to the caller, never retried.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput covers quantity/stake/limit values outside the allowed
	// range and trades against markets that are not open.
	ErrInvalidInput = errors.New("invalid input")

	// ErrComputation marks malformed persisted data discovered while pricing,
	// e.g. an unknown pricing model on a market row. Data-integrity fault.
	ErrComputation = errors.New("computation error")

	// ErrStorageWrite means an insert/update did not return the expected row.
	// Callers may retry the whole request but must not assume partial effect.
	ErrStorageWrite = errors.New("storage write failed")
)
