package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrStoreRequired is returned by New when no cache store is configured.
	ErrStoreRequired = errors.New("cache store is required")

	// ErrEncodeBody is returned when the request body cannot be encoded as JSON.
	ErrEncodeBody = errors.New("encode request body")

	// ErrDecodeResponse is returned when a response body (fresh or cached)
	// is not valid JSON.
	ErrDecodeResponse = errors.New("decode response body")

	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorClass represents a classification of request errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport errors (no response).
	ErrorClassNetwork ErrorClass = "network"
)

// RequestError is returned when a request fails at the transport level or
// with a non-2xx status. Failed responses are never cached.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	ErrorClass ErrorClass
	Message    string

	// Body is the response body of a non-2xx response.
	Body []byte

	Err error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s error: %s: %v",
			e.Method, e.URL, e.ErrorClass, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %s error (status %d): %s",
		e.Method, e.URL, e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// classifyStatus categorizes a non-2xx status code.
func classifyStatus(statusCode int) ErrorClass {
	if statusCode >= http.StatusInternalServerError {
		return ErrorClassServer
	}
	return ErrorClassClient
}

// classOf returns the class of err, or "" if err is not a RequestError.
func classOf(err error) ErrorClass {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.ErrorClass
	}
	return ""
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassClient:
		// 4xx errors will fail the same way again
		return false
	case ErrorClassServer:
		return true
	case ErrorClassNetwork:
		return true
	default:
		return false
	}
}

// idempotent reports whether a request with method may be sent more than once.
func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
}
