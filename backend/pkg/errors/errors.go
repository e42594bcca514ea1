package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeEmbedding represents embedding backend errors
	ErrorTypeEmbedding ErrorType = "embedding"
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeFallback represents fallback generation errors
	ErrorTypeFallback ErrorType = "fallback"
	// ErrorTypeChannel represents messaging channel errors
	ErrorTypeChannel ErrorType = "channel"
	// ErrorTypeCatalog represents product catalog lookup errors
	ErrorTypeCatalog ErrorType = "catalog"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// ErrType reports the error category; promoted through embedding so typed
// wrappers answer IsErrorType without extra code
func (e *BaseError) ErrType() ErrorType {
	return e.Type
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Embedding Errors

// ErrEmbeddingUnavailable is returned when the embedding backend cannot be
// reached; the caller must skip cache matching for the current turn
type ErrEmbeddingUnavailable struct {
	*BaseError
	Endpoint string
}

func NewEmbeddingUnavailable(endpoint string, err error) *ErrEmbeddingUnavailable {
	return &ErrEmbeddingUnavailable{
		BaseError: NewBaseError(ErrorTypeEmbedding, fmt.Sprintf("embedding backend unavailable: %s", endpoint), err),
		Endpoint:  endpoint,
	}
}

// Graph Errors

// ErrStoreUnavailable is returned when the knowledge store cannot be reached.
// Reads degrade to "no match"; write failures are logged and swallowed
type ErrStoreUnavailable struct {
	*BaseError
	URI string
}

func NewStoreUnavailable(uri string, err error) *ErrStoreUnavailable {
	return &ErrStoreUnavailable{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("knowledge store unavailable: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphQueryFailed is returned when a graph query fails
type ErrGraphQueryFailed struct {
	*BaseError
	Operation string
}

func NewGraphQueryFailed(operation string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("query failed: %s", operation), err),
		Operation: operation,
	}
}

// ErrEntryNotFound is returned when an exact-key knowledge lookup misses
type ErrEntryNotFound struct {
	*BaseError
	Question string
}

func NewEntryNotFound(question string) *ErrEntryNotFound {
	return &ErrEntryNotFound{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("no entry for question: %s", question), nil),
		Question:  question,
	}
}

// ErrUserNotFound is returned when a user is not found in the graph
type ErrUserNotFound struct {
	*BaseError
	UID string
}

func NewUserNotFound(uid string) *ErrUserNotFound {
	return &ErrUserNotFound{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("user not found: %s", uid), nil),
		UID:       uid,
	}
}

// Fallback Errors

// ErrFallbackTimeout is returned when the generation call exceeds its deadline.
// The user receives the canned apology and nothing is cached
type ErrFallbackTimeout struct {
	*BaseError
	Timeout time.Duration
}

func NewFallbackTimeout(timeout time.Duration, err error) *ErrFallbackTimeout {
	return &ErrFallbackTimeout{
		BaseError: NewBaseError(ErrorTypeFallback, fmt.Sprintf("generation timed out after %v", timeout), err),
		Timeout:   timeout,
	}
}

// ErrFallbackFailed is returned on a non-200 status or malformed body from
// the generation endpoint
type ErrFallbackFailed struct {
	*BaseError
	StatusCode int
}

func NewFallbackFailed(statusCode int, err error) *ErrFallbackFailed {
	return &ErrFallbackFailed{
		BaseError:  NewBaseError(ErrorTypeFallback, fmt.Sprintf("generation failed with status %d", statusCode), err),
		StatusCode: statusCode,
	}
}

// Channel Errors

// ErrMalformedEvent is returned when an inbound webhook payload does not
// parse or lacks required fields. The delivery is still acknowledged so the
// channel does not retry indefinitely
type ErrMalformedEvent struct {
	*BaseError
	Reason string
}

func NewMalformedEvent(reason string, err error) *ErrMalformedEvent {
	return &ErrMalformedEvent{
		BaseError: NewBaseError(ErrorTypeChannel, fmt.Sprintf("malformed event: %s", reason), err),
		Reason:    reason,
	}
}

// ErrReplyFailed is returned when delivering a reply to the channel fails
type ErrReplyFailed struct {
	*BaseError
	StatusCode int
}

func NewReplyFailed(statusCode int, err error) *ErrReplyFailed {
	return &ErrReplyFailed{
		BaseError:  NewBaseError(ErrorTypeChannel, fmt.Sprintf("reply delivery failed with status %d", statusCode), err),
		StatusCode: statusCode,
	}
}

// Catalog Errors

// ErrCatalogFetchFailed is returned when the storefront search page cannot
// be fetched or parsed
type ErrCatalogFetchFailed struct {
	*BaseError
	Term string
}

func NewCatalogFetchFailed(term string, err error) *ErrCatalogFetchFailed {
	return &ErrCatalogFetchFailed{
		BaseError: NewBaseError(ErrorTypeCatalog, fmt.Sprintf("catalog search failed: %s", term), err),
		Term:      term,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}
	if typed, ok := err.(interface{ ErrType() ErrorType }); ok {
		return typed.ErrType() == errType
	}
	if wrapper, ok := err.(interface{ Unwrap() error }); ok {
		if inner := wrapper.Unwrap(); inner != nil {
			return IsErrorType(inner, errType)
		}
	}
	return false
}

// IsRetryable checks if an error is worth retrying on a later turn
func IsRetryable(err error) bool {
	// Backend outages usually recover
	if IsErrorType(err, ErrorTypeEmbedding) || IsErrorType(err, ErrorTypeGraph) {
		return true
	}
	// Fallback timeouts are transient
	if _, ok := err.(*ErrFallbackTimeout); ok {
		return true
	}
	return false
}
