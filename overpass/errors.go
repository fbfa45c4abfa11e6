// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

package overpass

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ValidationError reports malformed user input. It is raised before any
// network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ServiceError reports a failure of the Overpass service or the network in
// between. The query may be retried by the user; the client never retries.
type ServiceError struct {
	Type    ErrorType
	Message string
	Err     error
}

// ErrorType classifies service failures.
type ErrorType int

const (
	// ErrorTypeUnknown unclassified failure.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit rate limit reached.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded quota exceeded or access denied.
	ErrorTypeQuotaExceeded
	// ErrorTypeTimeout connection or gateway timeout.
	ErrorTypeTimeout
	// ErrorTypeInvalidRequest the service rejected the query.
	ErrorTypeInvalidRequest
	// ErrorTypeNetworkError transport level failure.
	ErrorTypeNetworkError
)

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsRateLimitError checks whether the error was caused by rate limiting.
func IsRateLimitError(err error) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Type == ErrorTypeRateLimit
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// IsTimeoutError checks whether the error was caused by a timeout.
func IsTimeoutError(err error) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Type == ErrorTypeTimeout
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// ClassifyHTTPError maps an HTTP status code to a ServiceError.
func ClassifyHTTPError(statusCode int) *ServiceError {
	switch statusCode {
	case http.StatusTooManyRequests: // 429
		return &ServiceError{
			Type:    ErrorTypeRateLimit,
			Message: "rate limit reached",
		}
	case http.StatusForbidden: // 403
		return &ServiceError{
			Type:    ErrorTypeQuotaExceeded,
			Message: "quota exceeded or access denied",
		}
	case http.StatusBadRequest: // 400
		return &ServiceError{
			Type:    ErrorTypeInvalidRequest,
			Message: "invalid query",
		}
	case http.StatusGatewayTimeout: // 504
		return &ServiceError{
			Type:    ErrorTypeTimeout,
			Message: "gateway timeout",
		}
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return &ServiceError{
			Type:    ErrorTypeNetworkError,
			Message: fmt.Sprintf("service unavailable (status %d)", statusCode),
		}
	default:
		return &ServiceError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("HTTP error %d", statusCode),
		}
	}
}
