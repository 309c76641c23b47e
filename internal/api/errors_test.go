/*-------------------------------------------------------------------------
 *
 * errors_test.go
 *    Tests for review-error to HTTP status mapping
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/internal/api/errors_test.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/ipamc/accessreview/internal/review"
)

func TestMapReviewError(t *testing.T) {
	id := uuid.New()
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", &review.NotFoundError{Resource: "review item", ID: id}, http.StatusNotFound},
		{"stage mismatch", &review.StageMismatchError{ReviewItemID: id, Submitted: review.StageReportingManager, Pending: review.StageAppManager}, http.StatusBadRequest},
		{"unauthorized", &review.UnauthorizedError{ReviewItemID: id, Stage: review.StageAppOwner, ActorID: id}, http.StatusForbidden},
		{"invalid action", &review.InvalidActionError{Reason: "action must not be empty"}, http.StatusBadRequest},
		{"unknown", fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		apiErr := mapReviewError(tc.err, "req-1")
		if apiErr.Code != tc.want {
			t.Errorf("%s: code = %d, want %d", tc.name, apiErr.Code, tc.want)
		}
		if apiErr.RequestID != "req-1" {
			t.Errorf("%s: request id not propagated", tc.name)
		}
	}
}

func TestMapReviewErrorUnwrapsWrapped(t *testing.T) {
	inner := &review.NotFoundError{Resource: "review cycle", ID: uuid.New()}
	wrapped := fmt.Errorf("failed to start review cycle: %w", inner)
	if apiErr := mapReviewError(wrapped, ""); apiErr.Code != http.StatusNotFound {
		t.Errorf("wrapped NotFoundError should map to 404, got %d", apiErr.Code)
	}
}
