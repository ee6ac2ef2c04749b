package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Graph lifecycle errors
const (
	// ErrCodeMalformedGraph indicates the graph failed structural validation.
	ErrCodeMalformedGraph ErrorCode = "MALFORMED_GRAPH"
	// ErrCodeFittingFailed indicates an estimator's fit step failed.
	ErrCodeFittingFailed ErrorCode = "FITTING_FAILED"
	// ErrCodeEvaluationFailed indicates a transformer's apply step failed at runtime.
	ErrCodeEvaluationFailed ErrorCode = "EVALUATION_FAILED"
	// ErrCodeUnboundSource indicates apply or fit was invoked without a value for the declared source.
	ErrCodeUnboundSource ErrorCode = "UNBOUND_SOURCE"
)

// Resource errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeAlreadyExists indicates the resource already exists.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Authentication errors
const (
	// ErrCodeUnauthorized indicates the request is unauthorized.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeTokenExpired indicates the authentication token has expired.
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"
	// ErrCodeInvalidToken indicates the authentication token is invalid.
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeStorageError indicates an artifact storage error.
	ErrCodeStorageError ErrorCode = "STORAGE_ERROR"
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeStorageError: true,
	ErrCodeTimeout:      true,
	ErrCodeInternal:     false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
