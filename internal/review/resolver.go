/*-------------------------------------------------------------------------
 *
 * resolver.go
 *    Approver chain resolution for access grants
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/internal/review/resolver.go
 *
 *-------------------------------------------------------------------------
 */

package review

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ipamc/accessreview/internal/db"
)

/* ApproverChain holds the resolved approver for each stage of one access
 * grant. A nil slot means the stage is skipped for this grant. */
type ApproverChain struct {
	ReportingManagerID *uuid.UUID
	AppManagerID       *uuid.UUID
	AppOwnerID         *uuid.UUID
	BusinessOwnerID    *uuid.UUID
}

/* ResolveApprovers computes the approver chain for an access grant from
 * the mapping tables. The reporting manager is kept only when the
 * manager's app coverage includes the grant's application; an uncovered
 * manager drops out and the chain starts at the application manager.
 */
func ResolveApprovers(ctx context.Context, s Store, access *db.Access) (ApproverChain, error) {
	var chain ApproverChain

	manager, err := s.ReportingManagerOf(ctx, access.UserID)
	if err != nil {
		return chain, fmt.Errorf("failed to resolve reporting manager: %w", err)
	}
	if manager != nil {
		covers, err := s.ManagerCoversApp(ctx, *manager, access.ApplicationID)
		if err != nil {
			return chain, fmt.Errorf("failed to check manager app coverage: %w", err)
		}
		if covers {
			chain.ReportingManagerID = manager
		}
	}

	if chain.AppManagerID, err = s.AppManagerOf(ctx, access.ApplicationID); err != nil {
		return chain, fmt.Errorf("failed to resolve app manager: %w", err)
	}
	if chain.AppOwnerID, err = s.AppOwnerOf(ctx, access.ApplicationID); err != nil {
		return chain, fmt.Errorf("failed to resolve app owner: %w", err)
	}
	if chain.BusinessOwnerID, err = s.BusinessOwnerOf(ctx, access.ApplicationID); err != nil {
		return chain, fmt.Errorf("failed to resolve business owner: %w", err)
	}
	return chain, nil
}

/* InitialStage returns the first stage with a resolved approver, or
 * completed when the chain is entirely empty. */
func (c ApproverChain) InitialStage() StageRole {
	switch {
	case c.ReportingManagerID != nil:
		return StageReportingManager
	case c.AppManagerID != nil:
		return StageAppManager
	case c.AppOwnerID != nil:
		return StageAppOwner
	case c.BusinessOwnerID != nil:
		return StageBusinessOwner
	}
	return StageCompleted
}

func (c ApproverChain) approverFor(stage StageRole) *uuid.UUID {
	switch stage {
	case StageReportingManager:
		return c.ReportingManagerID
	case StageAppManager:
		return c.AppManagerID
	case StageAppOwner:
		return c.AppOwnerID
	case StageBusinessOwner:
		return c.BusinessOwnerID
	}
	return nil
}
