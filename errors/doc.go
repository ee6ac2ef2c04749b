// Package errors provides unified error handling for the pipeline engine
// and its serving layer. It implements structured error types with error
// codes, HTTP status mapping, and retryable detection following RFC 7807
// and Google AIP-193.
package errors
