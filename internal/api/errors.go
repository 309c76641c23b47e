/*-------------------------------------------------------------------------
 *
 * errors.go
 *    API error types and HTTP error responses
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/internal/api/errors.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ipamc/accessreview/internal/db"
	"github.com/ipamc/accessreview/internal/review"
)

/* APIError carries an HTTP status code plus request context for logging */
type APIError struct {
	Code      int
	Message   string
	Err       error
	RequestID string
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

/* ErrorResponse is the JSON body returned for every failed request */
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

var (
	ErrNotFound     = &APIError{Code: http.StatusNotFound, Message: "resource not found"}
	ErrUnauthorized = &APIError{Code: http.StatusUnauthorized, Message: "unauthorized"}
)

/* NewError creates a new API error */
func NewError(code int, message string, err error) *APIError {
	return &APIError{Code: code, Message: message, Err: err}
}

/* WrapError attaches a request ID to an existing API error */
func WrapError(apiErr *APIError, requestID string) *APIError {
	return &APIError{
		Code:      apiErr.Code,
		Message:   apiErr.Message,
		Err:       apiErr.Err,
		RequestID: requestID,
	}
}

/* mapReviewError translates engine errors into HTTP errors. Stage
 * mismatches signal a stale client view and map to 400, not 409. */
func mapReviewError(err error, requestID string) *APIError {
	var notFound *review.NotFoundError
	if errors.As(err, &notFound) {
		return &APIError{Code: http.StatusNotFound, Message: notFound.Error(), RequestID: requestID}
	}
	var mismatch *review.StageMismatchError
	if errors.As(err, &mismatch) {
		return &APIError{Code: http.StatusBadRequest, Message: mismatch.Error(), RequestID: requestID}
	}
	var unauthorized *review.UnauthorizedError
	if errors.As(err, &unauthorized) {
		return &APIError{Code: http.StatusForbidden, Message: unauthorized.Error(), RequestID: requestID}
	}
	var invalid *review.InvalidActionError
	if errors.As(err, &invalid) {
		return &APIError{Code: http.StatusBadRequest, Message: invalid.Error(), RequestID: requestID}
	}
	if db.IsUniqueViolation(err) {
		return &APIError{Code: http.StatusConflict, Message: "duplicate entry", Err: err, RequestID: requestID}
	}
	return &APIError{Code: http.StatusInternalServerError, Message: "internal error", Err: err, RequestID: requestID}
}
