/*-------------------------------------------------------------------------
 *
 * stage.go
 *    Review stage roles and stage ordering
 *
 * The approval chain is strictly linear: reporting manager, application
 * manager, application owner, business owner, then completed. Absent
 * approver slots are skipped; there is no branching or re-entry.
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/internal/review/stage.go
 *
 *-------------------------------------------------------------------------
 */

package review

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ipamc/accessreview/internal/db"
)

type StageRole string

const (
	StageReportingManager StageRole = "reporting_manager"
	StageAppManager       StageRole = "app_manager"
	StageAppOwner         StageRole = "app_owner"
	StageBusinessOwner    StageRole = "business_owner"
	StageCompleted        StageRole = "completed"
)

/* stageOrder fixes the total order of approver roles */
var stageOrder = []StageRole{
	StageReportingManager,
	StageAppManager,
	StageAppOwner,
	StageBusinessOwner,
}

/* ParseStageRole parses an approver stage name. "completed" is not an
 * actionable stage and is rejected. */
func ParseStageRole(s string) (StageRole, error) {
	switch StageRole(s) {
	case StageReportingManager, StageAppManager, StageAppOwner, StageBusinessOwner:
		return StageRole(s), nil
	}
	return "", fmt.Errorf("unknown review stage: %q", s)
}

/* approverFor returns the resolved approver for a stage, or nil when the
 * slot is absent. */
func approverFor(item *db.ReviewItem, stage StageRole) *uuid.UUID {
	switch stage {
	case StageReportingManager:
		return item.ReportingManagerID
	case StageAppManager:
		return item.AppManagerID
	case StageAppOwner:
		return item.AppOwnerID
	case StageBusinessOwner:
		return item.BusinessOwnerID
	}
	return nil
}

/* nextPendingStage returns the first role after the given stage whose
 * approver slot is non-absent, or completed. */
func nextPendingStage(item *db.ReviewItem, after StageRole) StageRole {
	seen := false
	for _, stage := range stageOrder {
		if !seen {
			if stage == after {
				seen = true
			}
			continue
		}
		if approverFor(item, stage) != nil {
			return stage
		}
	}
	return StageCompleted
}

/* recordStageSlot writes the action, comment, and timestamp into the
 * item's per-stage slot. */
func recordStageSlot(item *db.ReviewItem, stage StageRole, action string, comment *string, at time.Time) {
	switch stage {
	case StageReportingManager:
		item.ReportingManagerAction = &action
		item.ReportingManagerComment = comment
		item.ReportingManagerTimestamp = &at
	case StageAppManager:
		item.AppManagerAction = &action
		item.AppManagerComment = comment
		item.AppManagerTimestamp = &at
	case StageAppOwner:
		item.AppOwnerAction = &action
		item.AppOwnerComment = comment
		item.AppOwnerTimestamp = &at
	case StageBusinessOwner:
		item.BusinessOwnerAction = &action
		item.BusinessOwnerComment = comment
		item.BusinessOwnerTimestamp = &at
	}
}
