/*-------------------------------------------------------------------------
 *
 * errors.go
 *    Typed errors for review engine operations
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/internal/review/errors.go
 *
 *-------------------------------------------------------------------------
 */

package review

import (
	"fmt"

	"github.com/google/uuid"
)

/* NotFoundError reports a missing entity referenced by an operation. */
type NotFoundError struct {
	Resource string
	ID       uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

/* StageMismatchError reports an action submitted against a stage that is
 * not the item's current pending stage. */
type StageMismatchError struct {
	ReviewItemID uuid.UUID
	Submitted    StageRole
	Pending      StageRole
}

func (e *StageMismatchError) Error() string {
	return fmt.Sprintf("review item %s is pending at stage %s, not %s",
		e.ReviewItemID, e.Pending, e.Submitted)
}

/* UnauthorizedError reports an actor who is not the resolved approver for
 * the stage they acted on. */
type UnauthorizedError struct {
	ReviewItemID uuid.UUID
	Stage        StageRole
	ActorID      uuid.UUID
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("user %s is not the %s approver for review item %s",
		e.ActorID, e.Stage, e.ReviewItemID)
}

/* InvalidActionError reports a malformed stage action request. */
type InvalidActionError struct {
	Reason string
}

func (e *InvalidActionError) Error() string {
	return e.Reason
}
