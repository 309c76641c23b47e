/*-------------------------------------------------------------------------
 *
 * staging_queries.go
 *    Database queries for staged changes
 *
 * Provides database query functions for the staged change ledger: the
 * single unapplied proposal per review item, held until the terminal
 * stage ratifies or vetoes it.
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/internal/db/staging_queries.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

const (
	createStagedChangeQuery = `
		INSERT INTO access_review.staging_change
		(review_item_id, proposed_action, proposed_by_id, payload, last_stage)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, proposed_at, applied`

	findUnappliedStagedChangeQuery = `
		SELECT * FROM access_review.staging_change
		WHERE review_item_id = $1 AND applied = FALSE
		LIMIT 1`

	updateStagedChangeQuery = `
		UPDATE access_review.staging_change SET
			proposed_action = $2, proposed_by_id = $3, proposed_at = $4,
			payload = $5, last_stage = $6, applied = $7, applied_at = $8
		WHERE id = $1`
)

func (q *Queries) CreateStagedChange(ctx context.Context, change *StagedChange) error {
	params := []interface{}{
		change.ReviewItemID, change.ProposedAction, change.ProposedByID,
		change.Payload, change.LastStage,
	}
	err := q.DB.GetContext(ctx, change, createStagedChangeQuery, params...)
	if err != nil {
		return fmt.Errorf("staged change creation failed: %w", err)
	}
	return nil
}

/* FindUnappliedStagedChange returns (nil, nil) when the item has no
 * pending proposal. Applied rows never come back: the idempotency guard
 * is this query's applied = FALSE filter. */
func (q *Queries) FindUnappliedStagedChange(ctx context.Context, reviewItemID uuid.UUID) (*StagedChange, error) {
	var change StagedChange
	err := q.DB.GetContext(ctx, &change, findUnappliedStagedChangeQuery, reviewItemID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find unapplied staged change: %w", err)
	}
	return &change, nil
}

func (q *Queries) UpdateStagedChange(ctx context.Context, change *StagedChange) error {
	params := []interface{}{
		change.ID, change.ProposedAction, change.ProposedByID, change.ProposedAt,
		change.Payload, change.LastStage, change.Applied, change.AppliedAt,
	}
	_, err := q.DB.ExecContext(ctx, updateStagedChangeQuery, params...)
	if err != nil {
		return fmt.Errorf("staged change update failed: %w", err)
	}
	return nil
}
